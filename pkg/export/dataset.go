package export

// Dataset is a tabular payload handed to an exporter.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Exporter renders a dataset into a downloadable document.
type Exporter interface {
	Render(dataset Dataset) ([]byte, error)
	ContentType() string
	FileExtension() string
}
