package weather

import "time"

type codeEntry struct {
	Icon string
	Desc string
}

// wmoCodes maps WMO weather interpretation codes to a display icon and
// short description. Emoji are spelled as escapes because several carry
// an invisible variation selector.
var wmoCodes = map[int]codeEntry{
	0:  {"☀️", "Clear sky"},
	1:  {"\U0001f324️", "Mainly clear"},
	2:  {"⛅", "Partly cloudy"},
	3:  {"☁️", "Overcast"},
	45: {"\U0001f32b️", "Fog"},
	48: {"\U0001f32b️", "Depositing rime fog"},
	51: {"\U0001f326️", "Light drizzle"},
	53: {"\U0001f326️", "Drizzle"},
	55: {"\U0001f327️", "Heavy drizzle"},
	56: {"\U0001f327️", "Freezing drizzle"},
	57: {"\U0001f327️", "Heavy freezing drizzle"},
	61: {"\U0001f326️", "Light rain"},
	63: {"\U0001f327️", "Rain"},
	65: {"\U0001f327️", "Heavy rain"},
	66: {"\U0001f328️", "Freezing rain"},
	67: {"\U0001f328️", "Heavy freezing rain"},
	71: {"\U0001f328️", "Light snow"},
	73: {"\U0001f328️", "Snow"},
	75: {"❄️", "Heavy snow"},
	77: {"❄️", "Snow grains"},
	80: {"\U0001f327️", "Rain showers"},
	81: {"\U0001f327️", "Heavy rain showers"},
	82: {"⛈️", "Violent rain showers"},
	85: {"\U0001f328️", "Snow showers"},
	86: {"❄️", "Heavy snow showers"},
	95: {"⛈️", "Thunderstorm"},
	96: {"⛈️", "Thunderstorm with hail"},
	99: {"⛈️", "Severe thunderstorm with hail"},
}

var unknownCode = codeEntry{"\U0001f321️", "Weather"}

// CodeIconDesc returns the display icon and description for a WMO
// weather code. Unknown or missing codes get a generic entry.
func CodeIconDesc(code *int) (icon, desc string) {
	if code == nil {
		return unknownCode.Icon, unknownCode.Desc
	}
	entry, ok := wmoCodes[*code]
	if !ok {
		return unknownCode.Icon, unknownCode.Desc
	}
	return entry.Icon, entry.Desc
}

var clockLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// FormatClockTime renders a provider's local ISO timestamp as a 12-hour
// clock time like "06:07 AM". Unparseable values fall back to the raw
// hh:mm substring, or the input itself.
func FormatClockTime(iso string) string {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("03:04 PM")
		}
	}
	if len(iso) >= 16 {
		return iso[11:13] + ":" + iso[14:16]
	}
	return iso
}
