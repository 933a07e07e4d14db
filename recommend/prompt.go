package recommend

import (
	"fmt"
	"strconv"
	"strings"

	"cultivai/cropvision/weather"
)

const agricultureOnly = "Solo responde preguntas relacionadas con la agricultura."

// WeatherContext renders the conditions paragraph shared by every prompt.
func WeatherContext(w *weather.Report) string {
	location := "desconocida"
	temp := "desconocida"
	humidity := "desconocida"
	description := "desconocido"
	if w != nil {
		if s := strings.TrimSpace(w.Name); s != "" {
			location = s
		}
		if w.Main.Temp != nil {
			temp = formatNumber(*w.Main.Temp)
		}
		if w.Main.Humidity != nil {
			humidity = formatNumber(*w.Main.Humidity)
		}
		if s := strings.TrimSpace(w.Description()); s != "" {
			description = s
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Actualmente, en tu ubicación (%s), ", location)
	fmt.Fprintf(&b, "la temperatura es de %s°C, ", temp)
	fmt.Fprintf(&b, "la humedad es del %s%%, ", humidity)
	fmt.Fprintf(&b, "y el clima se describe como %q.\n", description)
	b.WriteString(agricultureOnly)
	return b.String()
}

// RecommendationPrompt asks for care advice for crop.
func RecommendationPrompt(crop string, w *weather.Report) string {
	return WeatherContext(w) + "\n" +
		fmt.Sprintf("¿Qué recomendaciones puedes darme para el cultivo de %s en estas condiciones?", crop)
}

// ChatPrompt frames a user question. Without weather only the topic
// restriction is kept.
func ChatPrompt(message string, w *weather.Report) string {
	if w == nil {
		return agricultureOnly + "\n" + message
	}
	return WeatherContext(w) + "\n" + message
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
