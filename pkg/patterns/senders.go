package patterns

// knownSenders maps Android package identifiers of payment and banking apps
// to display names. Lookup only; never used in matching logic.
var knownSenders = map[string]string{
	"com.google.android.apps.nbu.paisa.user": "Google Pay",
	"net.one97.paytm":                        "Paytm",
	"com.phonepe.app":                        "PhonePe",
	"in.org.npci.upiapp":                     "BHIM",
	"in.amazon.mShop.android.shopping":       "Amazon",
	"com.dreamplug.androidapp":               "CRED",
	"com.sbi.lotusintouch":                   "YONO SBI",
	"com.csam.icici.bank.imobile":            "iMobile",
	"com.snapwork.hdfc":                      "HDFC Bank",
	"com.axis.mobile":                        "Axis Mobile",
	"com.idfcfirstbank.optimus":              "IDFC FIRST Bank",
}

// AppName returns the display name for a known sender package identifier.
func AppName(pkg string) (string, bool) {
	name, ok := knownSenders[pkg]
	return name, ok
}
