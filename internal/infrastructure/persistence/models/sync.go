package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// SyncFeedModel is the persistence model for the SyncFeed domain entity.
// The partial unique index enforces at most one non-terminal feed per
// credential and phase; terminal statuses are excluded from the index.
type SyncFeedModel struct {
	ID           uuid.UUID               `gorm:"type:uuid;primary_key"`
	CredentialID uuid.UUID               `gorm:"type:uuid;not null;index:idx_sync_feeds_credential,priority:1"`
	Phase        marketplace.FeedPhase   `gorm:"type:varchar(20);not null;index:idx_sync_feeds_credential,priority:2"`
	Status       marketplace.FeedStatus  `gorm:"type:varchar(30);not null;index"`
	ItemsJSON    string                  `gorm:"type:jsonb;column:items"`
	RemoteFeedID string                  `gorm:"type:varchar(100);index"`
	DocumentID   string                  `gorm:"type:varchar(100)"`
	ResultDocumentID     string          `gorm:"type:varchar(100)"`
	RequiresVerification bool            `gorm:"not null;default:false"`
	PriceFeedID  *uuid.UUID              `gorm:"type:uuid"`
	ErrorMessage string                  `gorm:"type:text"`
	SubmittedAt  *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time               `gorm:"not null"`
	UpdatedAt    time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncFeedModel) TableName() string {
	return "sync_feeds"
}

// ToDomain converts the persistence model to a domain SyncFeed entity.
func (m *SyncFeedModel) ToDomain() *marketplace.SyncFeed {
	feed := &marketplace.SyncFeed{
		ID:                   m.ID,
		CredentialID:         m.CredentialID,
		Phase:                m.Phase,
		Status:               m.Status,
		RemoteFeedID:         m.RemoteFeedID,
		DocumentID:           m.DocumentID,
		ResultDocumentID:     m.ResultDocumentID,
		RequiresVerification: m.RequiresVerification,
		PriceFeedID:          m.PriceFeedID,
		ErrorMessage:         m.ErrorMessage,
		SubmittedAt:          m.SubmittedAt,
		CompletedAt:          m.CompletedAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}

	if m.ItemsJSON != "" {
		var items []marketplace.AggregatedFeedItem
		if err := json.Unmarshal([]byte(m.ItemsJSON), &items); err == nil {
			feed.Items = items
		}
	}
	return feed
}

// FromDomain populates the persistence model from a domain SyncFeed entity.
func (m *SyncFeedModel) FromDomain(feed *marketplace.SyncFeed) {
	m.ID = feed.ID
	m.CredentialID = feed.CredentialID
	m.Phase = feed.Phase
	m.Status = feed.Status
	m.RemoteFeedID = feed.RemoteFeedID
	m.DocumentID = feed.DocumentID
	m.ResultDocumentID = feed.ResultDocumentID
	m.RequiresVerification = feed.RequiresVerification
	m.PriceFeedID = feed.PriceFeedID
	m.ErrorMessage = feed.ErrorMessage
	m.SubmittedAt = feed.SubmittedAt
	m.CompletedAt = feed.CompletedAt
	m.CreatedAt = feed.CreatedAt
	m.UpdatedAt = feed.UpdatedAt

	if data, err := json.Marshal(feed.Items); err == nil {
		m.ItemsJSON = string(data)
	}
}

// FeedItemModel is the persistence model for per-SKU feed outcomes.
type FeedItemModel struct {
	ID        uuid.UUID                  `gorm:"type:uuid;primary_key"`
	FeedID    uuid.UUID                  `gorm:"type:uuid;not null;index"`
	SKU       string                     `gorm:"type:varchar(100);not null;index"`
	Status    marketplace.FeedItemStatus `gorm:"type:varchar(20);not null"`
	ErrorCode string                     `gorm:"type:varchar(50)"`
	Severity  string                     `gorm:"type:varchar(20)"`
	Message   string                     `gorm:"type:text"`
	CreatedAt time.Time                  `gorm:"not null"`
	UpdatedAt time.Time                  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FeedItemModel) TableName() string {
	return "sync_feed_items"
}

// ToDomain converts the persistence model to a domain FeedItem.
func (m *FeedItemModel) ToDomain() marketplace.FeedItem {
	return marketplace.FeedItem{
		ID:        m.ID,
		FeedID:    m.FeedID,
		SKU:       m.SKU,
		Status:    m.Status,
		ErrorCode: m.ErrorCode,
		Severity:  m.Severity,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain FeedItem.
func (m *FeedItemModel) FromDomain(item marketplace.FeedItem) {
	m.ID = item.ID
	m.FeedID = item.FeedID
	m.SKU = item.SKU
	m.Status = item.Status
	m.ErrorCode = item.ErrorCode
	m.Severity = item.Severity
	m.Message = item.Message
	m.CreatedAt = item.CreatedAt
	m.UpdatedAt = item.UpdatedAt
}

// SyncQueueItemModel is the persistence model for pending sync intents.
type SyncQueueItemModel struct {
	ID              uuid.UUID                 `gorm:"type:uuid;primary_key"`
	InventoryItemID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	SKU             string                    `gorm:"type:varchar(100);not null;index"`
	QuantityDelta   int64                     `gorm:"not null"`
	Price           decimal.Decimal           `gorm:"type:decimal(12,2);not null"`
	Condition       marketplace.ItemCondition `gorm:"type:varchar(30)"`
	Title           string                    `gorm:"type:varchar(255)"`
	SubmittedFeedID *uuid.UUID                `gorm:"type:uuid;index"`
	CreatedAt       time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncQueueItemModel) TableName() string {
	return "sync_queue_items"
}

// ToDomain converts the persistence model to a domain SyncQueueItem.
func (m *SyncQueueItemModel) ToDomain() marketplace.SyncQueueItem {
	return marketplace.SyncQueueItem{
		ID:              m.ID,
		InventoryItemID: m.InventoryItemID,
		SKU:             m.SKU,
		QuantityDelta:   m.QuantityDelta,
		Price:           m.Price,
		Condition:       m.Condition,
		Title:           m.Title,
		SubmittedFeedID: m.SubmittedFeedID,
		CreatedAt:       m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncQueueItem.
func (m *SyncQueueItemModel) FromDomain(item *marketplace.SyncQueueItem) {
	m.ID = item.ID
	m.InventoryItemID = item.InventoryItemID
	m.SKU = item.SKU
	m.QuantityDelta = item.QuantityDelta
	m.Price = item.Price
	m.Condition = item.Condition
	m.Title = item.Title
	m.SubmittedFeedID = item.SubmittedFeedID
	m.CreatedAt = item.CreatedAt
}

// AccessTokenModel persists cached access tokens across restarts.
type AccessTokenModel struct {
	CredentialID uuid.UUID `gorm:"type:uuid;primary_key"`
	Token        string    `gorm:"type:text;not null"`
	ExpiresAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccessTokenModel) TableName() string {
	return "access_tokens"
}

// ToDomain converts the persistence model to a domain AccessToken.
func (m *AccessTokenModel) ToDomain() marketplace.AccessToken {
	return marketplace.AccessToken{
		Token:     m.Token,
		ExpiresAt: m.ExpiresAt,
	}
}

// InventoryItemModel is the persistence model for local inventory read by
// the reconciliation and sync paths.
type InventoryItemModel struct {
	ID           uuid.UUID                 `gorm:"type:uuid;primary_key"`
	CredentialID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	SKU          string                    `gorm:"type:varchar(100);not null;index"`
	Title        string                    `gorm:"type:varchar(255)"`
	Condition    marketplace.ItemCondition `gorm:"type:varchar(30)"`
	Quantity     int64                     `gorm:"not null;default:0"`
	TargetPrice  decimal.Decimal           `gorm:"type:decimal(12,2)"`
	Status       string                    `gorm:"type:varchar(30)"`
	CreatedAt    time.Time                 `gorm:"not null"`
	UpdatedAt    time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain InventoryItem.
func (m *InventoryItemModel) ToDomain() marketplace.InventoryItem {
	return marketplace.InventoryItem{
		ID:          m.ID,
		SKU:         m.SKU,
		Title:       m.Title,
		Condition:   m.Condition,
		Quantity:    m.Quantity,
		TargetPrice: m.TargetPrice,
		Status:      m.Status,
	}
}
