package model

// Word is the word of the day.
type Word struct {
	Word     string `json:"word"`
	Meaning  string `json:"meaning"`
	Sentence string `json:"sentence"`
	Type     string `json:"type"`
}

// DefaultWord returns an empty word.
func DefaultWord() Word { return Word{} }

// Qotd is the quote of the day.
type Qotd struct {
	ID     int    `json:"id"`
	Quote  string `json:"quote"`
	Source string `json:"source"`
}

// DefaultQotd returns an empty quote.
func DefaultQotd() Qotd { return Qotd{} }

// WeatherNow holds current observations. Values are strings on the wire.
type WeatherNow struct {
	ObsTime   string `json:"obsTime"`
	Temp      string `json:"temp"`
	FeelsLike string `json:"feelsLike"`
	Icon      string `json:"icon"`
	Text      string `json:"text"`
	Wind360   string `json:"wind360"`
	WindDir   string `json:"windDir"`
	WindScale string `json:"windScale"`
	WindSpeed string `json:"windSpeed"`
	Humidity  string `json:"humidity"`
	Precip    string `json:"precip"`
	Pressure  string `json:"pressure"`
	Vis       string `json:"vis"`
	Cloud     string `json:"cloud"`
	Dew       string `json:"dew"`
}

// WeatherRefer lists data sources and licences.
type WeatherRefer struct {
	Sources []string `json:"sources"`
	License []string `json:"license"`
}

// Weather is the weather widget payload.
type Weather struct {
	Code       string       `json:"code"`
	UpdateTime string       `json:"updateTime"`
	FxLink     string       `json:"fxLink"`
	Now        WeatherNow   `json:"now"`
	Refer      WeatherRefer `json:"refer"`
}

// DefaultWeather returns an empty weather record with non-nil lists.
func DefaultWeather() Weather {
	return Weather{Refer: WeatherRefer{Sources: []string{}, License: []string{}}}
}

// Available reports whether the record carries an observation.
func (w Weather) Available() bool {
	return w.Now.ObsTime != "" || w.Now.Text != ""
}
