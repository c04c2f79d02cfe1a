package domain

// Categories — фиксированный набор категорий стихотворений.
var Categories = []string{
	"عاشقانه",
	"غمگین",
	"طنز",
	"عرفانی",
	"فلسفی",
	"حماسی",
	"مذهبی",
	"طبیعت",
	"اجتماعی",
	"کودکانه",
	"انتقادی",
	"مناسبتی",
}

// KnownCategory сообщает, входит ли метка в фиксированный набор.
func KnownCategory(label string) bool {
	for _, c := range Categories {
		if c == label {
			return true
		}
	}
	return false
}
