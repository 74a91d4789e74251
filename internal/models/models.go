package models

import "time"

// ArtworkRecord represents a single object from the museum collection API
type ArtworkRecord struct {
	ObjectID          int    `json:"objectID" parquet:"object_id" yaml:"objectid"`
	Title             string `json:"title" parquet:"title" yaml:"title"`
	ArtistDisplayName string `json:"artistDisplayName" parquet:"artist_display_name" yaml:"artist,omitempty"`
	ObjectDate        string `json:"objectDate" parquet:"object_date" yaml:"date,omitempty"`
	Medium            string `json:"medium" parquet:"medium" yaml:"medium,omitempty"`
	PrimaryImage      string `json:"primaryImage" parquet:"primary_image" yaml:"image,omitempty"`
	PrimaryImageSmall string `json:"primaryImageSmall" parquet:"primary_image_small" yaml:"thumbnail,omitempty"`
	Department        string `json:"department" parquet:"department" yaml:"department,omitempty"`
	Culture           string `json:"culture" parquet:"culture" yaml:"culture,omitempty"`
	CreditLine        string `json:"creditLine" parquet:"credit_line" yaml:"creditline,omitempty"`
	ObjectURL         string `json:"objectURL" parquet:"object_url" yaml:"url,omitempty"`
}

// Thumbnail returns the best image URL for a gallery card
func (a *ArtworkRecord) Thumbnail() string {
	if a.PrimaryImageSmall != "" {
		return a.PrimaryImageSmall
	}
	return a.PrimaryImage
}

// SearchResult is the ordered id list produced by one search call
type SearchResult struct {
	Total     int   `json:"total"`
	ObjectIDs []int `json:"objectIDs"`
}

// InsightRequest is the body accepted by the insight proxy
type InsightRequest struct {
	Prompt   string   `json:"prompt"`
	ObjectID ObjectID `json:"objectID,omitempty"`
}

// InsightResponse is the success body returned by the insight proxy
type InsightResponse struct {
	Text   string `json:"text"`
	Cached bool   `json:"cached,omitempty"`
}

// ErrorResponse is the failure body returned by the insight proxy
type ErrorResponse struct {
	Error string `json:"error"`
}

// InsightRecord pairs an artwork with a generated insight for export
type InsightRecord struct {
	Artwork     ArtworkRecord `yaml:"artwork"`
	Insight     string        `yaml:"insight,omitempty"`
	GeneratedAt time.Time     `yaml:"generatedat,omitempty"`
}
