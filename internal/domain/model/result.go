package model

// ScrapingResult is one scraped TikTok video as delivered by the workflow
// engine. IDs come from the engine payload; no uniqueness is enforced beyond
// what the engine sends, so the global pool may accumulate duplicates across
// repeated deliveries.
type ScrapingResult struct {
	ID            string   `json:"id"`
	VideoURL      string   `json:"videoUrl"`
	Transcript    string   `json:"transcript,omitempty"`
	Caption       string   `json:"caption,omitempty"`
	Views         int64    `json:"views"`
	Likes         int64    `json:"likes"`
	Account       string   `json:"account,omitempty"`
	Hashtag       string   `json:"hashtag,omitempty"`
	SubtitleLinks []string `json:"subtitleLinks,omitempty"`
}
