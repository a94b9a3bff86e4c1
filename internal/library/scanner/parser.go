package scanner

// Detection is what can be read from a single filename.
type Detection struct {
	Filename    string `json:"filename"`
	Tome        *int   `json:"tome"`
	SeriesGuess string `json:"seriesGuess"`
}

// ParseFilename runs tome and series detection on a filename. Both work on
// the stem independently.
func ParseFilename(filename string) Detection {
	d := Detection{
		Filename:    filename,
		SeriesGuess: DetectSeries(filename),
	}
	if tome, ok := DetectTome(filename); ok {
		d.Tome = &tome
	}
	return d
}
