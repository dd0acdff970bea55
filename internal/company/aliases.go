package company

// curatedAliases maps canonical company keys to known variant spellings,
// abbreviations and subsidiaries.
var curatedAliases = map[string][]string{
	// Big tech
	"google":    {"alphabet", "google india", "google llc", "youtube", "deepmind"},
	"microsoft": {"msft", "microsoft india", "microsoft idc", "linkedin", "github"},
	"amazon":    {"amazon india", "aws", "amazon web services", "amzn", "audible"},
	"meta":      {"facebook", "fb", "instagram", "whatsapp", "meta platforms"},
	"apple":     {"apple inc", "apple india"},
	"netflix":   {"netflix inc"},
	"adobe":     {"adobe systems", "adobe india"},
	"oracle":    {"oracle india", "oracle cloud"},
	"ibm":       {"ibm india", "ibm research", "red hat", "redhat"},
	"intel":     {"intel india", "intel corporation"},
	"nvidia":    {"nvidia india", "nvda"},
	"qualcomm":  {"qualcomm india", "qcom"},
	"cisco":     {"cisco systems", "cisco india"},
	"uber":      {"uber india", "uber technologies"},
	"samsung":   {"samsung research", "samsung rd", "srib"},

	// Product and SaaS
	"salesforce": {"sfdc", "salesforce india"},
	"atlassian":  {"atlassian india"},
	"sprinklr":   {"sprinklr india"},
	"zoho":       {"zoho corporation", "zoho corp"},
	"freshworks": {"freshdesk"},

	// Finance and trading
	"goldmansachs":  {"goldman sachs", "goldman"},
	"jpmorgan":      {"jp morgan", "jpmorgan chase", "jpmc", "j p morgan"},
	"morganstanley": {"morgan stanley"},
	"deshaw":        {"de shaw", "d e shaw"},
	"tower":         {"tower research", "tower research capital"},

	// Indian startups
	"flipkart": {"flipkart internet", "myntra", "cleartrip"},
	"walmart":  {"walmart labs", "walmart global tech"},
	"paytm":    {"one97", "one97 communications"},
	"phonepe":  {"phone pe"},
	"razorpay": {"razor pay"},
	"swiggy":   {"swiggy instamart", "bundl technologies"},
	"zomato":   {"blinkit"},
	"ola":      {"ola cabs", "ani technologies", "ola electric"},
	"cred":     {"dreamplug"},
	"zepto":    {"kiranakart"},
	"meesho":   {"fashnear"},
	"juspay":   {"juspay technologies"},

	// Services and consulting
	"tcs":       {"tata consultancy services", "tata consultancy"},
	"infosys":   {"infy", "infosys limited"},
	"wipro":     {"wipro limited", "wipro technologies"},
	"hcl":       {"hcltech", "hcl technologies"},
	"accenture": {"accenture india"},
	"cognizant": {"cognizant technology solutions"},
	"capgemini": {"cap gemini", "capgemini india"},
	"deloitte":  {"deloitte india", "deloitte usi"},
	"mckinsey":  {"mckinsey company", "mckinsey and company"},
	"bcg":       {"boston consulting group", "boston consulting"},
	"bain":      {"bain company", "bain and company"},

	// Hardware and public sector
	"texasinstruments": {"texas instruments"},
	"isro":             {"indian space research organisation"},
	"drdo":             {"defence research and development organisation"},
}
