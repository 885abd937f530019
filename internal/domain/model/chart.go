package model

// ChartImage is an uploaded chart screenshot as received from the client.
// Data is base64 without a data: URL prefix; MediaType is e.g. "image/png".
type ChartImage struct {
	Data      string
	MediaType string
}
