package httpx

const (
	Green      = "\033[32m"
	Yellow     = "\033[33m"
	Blue       = "\033[34m"
	Magenta    = "\033[35m"
	Cyan       = "\033[36m"
	Red        = "\033[31m"
	Gray       = "\033[90m" // Bright black, often appears as gray
	ResetColor = "\033[0m"  // Reset to default color
)

var methodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Cyan,
	"DELETE": Yellow,
	"PATCH":  Magenta,
}

// colourMethod wraps the method in its terminal colour
func colourMethod(method string) string {
	colour, ok := methodColors[method]
	if !ok {
		colour = Gray
	}
	return colour + method + ResetColor
}

func colourStatus(status int) string {
	switch {
	case status >= 500:
		return Red
	case status >= 400:
		return Yellow
	default:
		return Green
	}
}
