package spapi

// Wire shapes for the selling-partner API endpoints the client touches.
// Only the fields the sync engine reads are mapped.

// listingsSearchResponse is the paginated listings snapshot envelope.
type listingsSearchResponse struct {
	NumberOfResults int               `json:"numberOfResults"`
	Pagination      paginationSection `json:"pagination"`
	Items           []listingsItem    `json:"items"`
}

type paginationSection struct {
	NextToken string `json:"nextToken"`
}

type listingsItem struct {
	SKU       string             `json:"sku"`
	Summaries []listingsSummary  `json:"summaries"`
	Offers    []listingsOffer    `json:"offers"`
	Fulfill   []listingsQuantity `json:"fulfillmentAvailability"`
}

type listingsSummary struct {
	MarketplaceID string `json:"marketplaceId"`
	ASIN          string `json:"asin"`
	ProductType   string `json:"productType"`
	ItemName      string `json:"itemName"`
	ConditionType string `json:"conditionType"`
	Status        []string `json:"status"`
}

type listingsOffer struct {
	MarketplaceID string       `json:"marketplaceId"`
	OfferType     string       `json:"offerType"`
	Price         moneyElement `json:"price"`
}

type listingsQuantity struct {
	FulfillmentChannelCode string `json:"fulfillmentChannelCode"`
	Quantity               int64  `json:"quantity"`
}

type moneyElement struct {
	CurrencyCode string `json:"currencyCode"`
	Amount       string `json:"amount"`
}

// ordersResponse is the orders listing envelope.
type ordersResponse struct {
	Payload struct {
		Orders    []orderWire `json:"Orders"`
		NextToken string      `json:"NextToken"`
	} `json:"payload"`
}

type orderWire struct {
	AmazonOrderID          string `json:"AmazonOrderId"`
	OrderStatus            string `json:"OrderStatus"`
	PurchaseDate           string `json:"PurchaseDate"`
	NumberOfItemsShipped   int    `json:"NumberOfItemsShipped"`
	NumberOfItemsUnshipped int    `json:"NumberOfItemsUnshipped"`
	OrderTotal             struct {
		CurrencyCode string `json:"CurrencyCode"`
		Amount       string `json:"Amount"`
	} `json:"OrderTotal"`
}

// pricingResponse is the batched competitive pricing envelope.
type pricingResponse struct {
	Payload []pricingResult `json:"payload"`
}

type pricingResult struct {
	ASIN    string `json:"ASIN"`
	Status  string `json:"status"`
	Product struct {
		CompetitivePricing struct {
			CompetitivePrices []struct {
				CompetitivePriceID string `json:"CompetitivePriceId"`
				BelongsToRequester bool   `json:"belongsToRequester"`
				Price              struct {
					ListingPrice moneyElement `json:"ListingPrice"`
				} `json:"Price"`
			} `json:"CompetitivePrices"`
			NumberOfOfferListings []struct {
				Condition string `json:"condition"`
				Count     int    `json:"Count"`
			} `json:"NumberOfOfferListings"`
		} `json:"CompetitivePricing"`
		SalesRankings []struct {
			Rank int `json:"Rank"`
		} `json:"SalesRankings"`
	} `json:"Product"`
}

// catalogSearchResponse is the catalog items search envelope.
type catalogSearchResponse struct {
	NumberOfResults int `json:"numberOfResults"`
	Items           []struct {
		ASIN         string `json:"asin"`
		ProductTypes []struct {
			MarketplaceID string `json:"marketplaceId"`
			ProductType   string `json:"productType"`
		} `json:"productTypes"`
	} `json:"items"`
}

// Feed endpoint envelopes.
type createFeedDocumentResponse struct {
	FeedDocumentID string `json:"feedDocumentId"`
	URL            string `json:"url"`
}

type createFeedResponse struct {
	FeedID string `json:"feedId"`
}

type getFeedResponse struct {
	FeedID               string `json:"feedId"`
	ProcessingStatus     string `json:"processingStatus"`
	ResultFeedDocumentID string `json:"resultFeedDocumentId"`
}

type getFeedDocumentResponse struct {
	FeedDocumentID       string `json:"feedDocumentId"`
	URL                  string `json:"url"`
	CompressionAlgorithm string `json:"compressionAlgorithm"`
}

// feedReportDocument is the processing report body for JSON listings feeds.
type feedReportDocument struct {
	Header struct {
		FeedID string `json:"feedId"`
	} `json:"header"`
	Issues []struct {
		MessageID int    `json:"messageId"`
		Code      string `json:"code"`
		Severity  string `json:"severity"`
		Message   string `json:"message"`
		SKU       string `json:"sku"`
	} `json:"issues"`
	Summary struct {
		Errors            int `json:"errors"`
		Warnings          int `json:"warnings"`
		MessagesProcessed int `json:"messagesProcessed"`
		MessagesAccepted  int `json:"messagesAccepted"`
		MessagesInvalid   int `json:"messagesInvalid"`
	} `json:"summary"`
}
