package metrics

// Basic colors.
const (
	BlueColor         = "#1f77b4"
	BlueColorDarker   = "#004481"
	BlueColorBrighter = "#52AAE7"
	BrownColor        = "#8c564b"
	GreenColor        = "#2ca02c"
	RedColor          = "#d62728"
	RedColorDarker    = "#A30000"
	RedColorBrighter  = "#FF5A5B"
	GrayColor         = "#999999"
	OrangeColor       = "#ff9900"
	OrangeColorDarker = "#d13212"
)

// Semantic colors.
const (
	NeutralColor   = GrayColor
	HealthyColor   = GreenColor
	UnhealthyColor = RedColor

	HitColor    = GreenColor
	MissColor   = RedColor
	ReadColor   = GreenColor
	WriteColor  = BrownColor
	DeleteColor = RedColor

	SuccessColor = GreenColor
	ErrorColor   = RedColorBrighter
	FailureColor = RedColorDarker
	FaultColor   = RedColor

	WarningAnnotationColor  = OrangeColor
	CriticalAnnotationColor = OrangeColorDarker
	InfoAnnotationColor     = GrayColor
)
