package maintenance

import "github.com/ukydev/farm-maintenance/internal/models"

// Label is a display name and hex color for an enum value.
type Label struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

const unknownColor = "#8c8c8c"

// UrgencyLabel returns the display label for an urgency.
func UrgencyLabel(u models.Urgency) Label {
	switch u {
	case models.UrgencyOverdue:
		return Label{Text: "已逾期", Color: "#ff4d4f"}
	case models.UrgencyUrgent:
		return Label{Text: "紧急", Color: "#fa541c"}
	case models.UrgencyHigh:
		return Label{Text: "高", Color: "#fa8c16"}
	case models.UrgencyMedium:
		return Label{Text: "中", Color: "#faad14"}
	case models.UrgencyLow:
		return Label{Text: "低", Color: "#52c41a"}
	default:
		return Label{Text: string(u), Color: unknownColor}
	}
}

// HealthLevelLabel returns the display label for a health level.
func HealthLevelLabel(l models.HealthLevel) Label {
	switch l {
	case models.HealthCritical:
		return Label{Text: "危险", Color: "#ff4d4f"}
	case models.HealthPoor:
		return Label{Text: "较差", Color: "#fa8c16"}
	case models.HealthFair:
		return Label{Text: "一般", Color: "#faad14"}
	case models.HealthGood:
		return Label{Text: "良好", Color: "#1890ff"}
	case models.HealthExcellent:
		return Label{Text: "优秀", Color: "#52c41a"}
	default:
		return Label{Text: string(l), Color: unknownColor}
	}
}
