package weather

import (
	"cultivai/cropvision/croplabel"
)

var descriptions = mustDescriptionTable()

func mustDescriptionTable() *croplabel.Table {
	t, err := croplabel.NewTable([]croplabel.Entry{
		{Label: "clear sky", Name: "Cielo despejado", Supported: true},
		{Label: "few clouds", Name: "Pocas nubes", Supported: true},
		{Label: "scattered clouds", Name: "Nubes dispersas", Supported: true},
		{Label: "broken clouds", Name: "Nubes fragmentadas", Supported: true},
		{Label: "shower rain", Name: "Lluvia ligera", Supported: true},
		{Label: "rain", Name: "Lluvia", Supported: true},
		{Label: "thunderstorm", Name: "Tormenta", Supported: true},
		{Label: "snow", Name: "Nieve", Supported: true},
		{Label: "mist", Name: "Neblina", Supported: true},
		{Label: "light rain", Name: "Lluvia ligera", Supported: true},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// TranslateDescription returns the Spanish wording of an OpenWeather
// description, or the description itself when it is not in the table.
func TranslateDescription(description string) string {
	if name, ok := descriptions.Name(description); ok {
		return name
	}
	return description
}
