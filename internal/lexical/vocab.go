package lexical

// intentPhrases are matched on word boundaries against normalized text.
var internshipPhrases = []string{
	"internship",
	"intern",
	"summer intern",
	"winter intern",
	"stipend",
	"ppo",
	"pre placement offer",
	"off campus internship",
}

var placementPhrases = []string{
	"placement",
	"placements",
	"full time",
	"fte",
	"job offer",
	"package",
	"ctc",
	"new grad",
}

// generalConfidence is the confidence reported when neither intent list hits.
const generalConfidence = 0.3

// tagVocabulary maps context tags to the phrases that signal them.
var tagVocabulary = map[string][]string{
	"tier-1":                  {"tier 1", "tier1", "tier one"},
	"tier-2":                  {"tier 2", "tier2", "tier two"},
	"tier-3":                  {"tier 3", "tier3", "tier three"},
	"iit":                     {"iit", "iits"},
	"nit":                     {"nit", "nits"},
	"iiit":                    {"iiit", "iiits"},
	"gate":                    {"gate exam", "gate preparation", "gate score"},
	"cat":                     {"cat exam", "iim", "mba"},
	"gre":                     {"gre", "ms abroad", "masters abroad"},
	"gsoc":                    {"gsoc", "google summer of code"},
	"hackathon":               {"hackathon", "hackathons"},
	"competitive-programming": {"competitive programming", "codeforces", "codechef", "leetcode"},
	"open-source":             {"open source", "opensource"},
	"career-switch":           {"career switch", "switch career", "non cs", "non tech", "career change"},
	"backlog":                 {"backlog", "backlogs", "low cgpa", "low gpa"},
	"off-campus":              {"off campus", "offcampus"},
	"on-campus":               {"on campus", "oncampus"},
	"startup":                 {"startup", "startups"},
	"research":                {"research", "phd", "paper"},
	"dropper":                 {"drop year", "gap year", "year gap"},
}

// techWords are single-token technical terms matched against the token set.
var techWords = map[string]struct{}{
	"java": {}, "python": {}, "golang": {}, "javascript": {}, "typescript": {},
	"react": {}, "angular": {}, "vue": {}, "nodejs": {}, "django": {},
	"flask": {}, "spring": {}, "kotlin": {}, "swift": {}, "rust": {},
	"cpp": {}, "sql": {}, "mongodb": {}, "postgres": {}, "mysql": {},
	"redis": {}, "kafka": {}, "docker": {}, "kubernetes": {}, "aws": {},
	"azure": {}, "gcp": {}, "backend": {}, "frontend": {}, "fullstack": {},
	"devops": {}, "android": {}, "ios": {}, "flutter": {}, "ml": {},
	"ai": {}, "dsa": {}, "blockchain": {}, "cybersecurity": {}, "embedded": {},
	"vlsi": {}, "tensorflow": {}, "pytorch": {}, "microservices": {}, "linux": {},
}

// techPhrases are multi-word or symbolic terms matched as substrings of the lowercased text.
var techPhrases = []string{
	"machine learning",
	"deep learning",
	"data science",
	"data structures",
	"system design",
	"web development",
	"app development",
	"cloud computing",
	"computer vision",
	"natural language processing",
	"full stack",
	"spring boot",
	"c++",
	"node.js",
	".net",
}

var urgentWords = map[string]struct{}{
	"urgent": {}, "urgently": {}, "asap": {}, "tomorrow": {}, "deadline": {}, "today": {},
}

var detailPhrases = []string{"detailed", "step by step", "in detail", "roadmap"}

// detailLength is the text length above which a question counts as detail-oriented.
const detailLength = 150

// stopWords covers English function words and common Hindi/English code-mixed filler.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "all": {},
	"any": {}, "can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {},
	"has": {}, "have": {}, "how": {}, "what": {}, "when": {}, "where": {}, "which": {}, "who": {},
	"why": {}, "will": {}, "with": {}, "this": {}, "that": {}, "these": {}, "those": {}, "from": {},
	"into": {}, "about": {}, "should": {}, "would": {}, "could": {}, "there": {}, "their": {},
	"them": {}, "they": {}, "then": {}, "than": {}, "been": {}, "being": {}, "some": {}, "such": {},
	"get": {}, "got": {}, "does": {}, "did": {}, "doing": {}, "also": {}, "just": {}, "very": {},
	"more": {}, "most": {}, "much": {}, "want": {}, "need": {}, "please": {}, "help": {},
	"know": {}, "like": {}, "your": {}, "my": {}, "mine": {}, "its": {}, "his": {}, "she": {},
	"him": {}, "were": {}, "is": {}, "it": {}, "in": {}, "on": {}, "at": {}, "to": {}, "of": {},
	"kya": {}, "kaise": {}, "hai": {}, "hain": {}, "mein": {}, "main": {}, "mujhe": {}, "kuch": {},
	"koi": {}, "karna": {}, "karu": {}, "kare": {}, "krna": {}, "bhi": {}, "aur": {}, "nahi": {},
	"nhi": {}, "toh": {}, "yaar": {}, "bhai": {}, "sir": {}, "mam": {}, "hoga": {}, "hota": {},
	"wala": {}, "wali": {}, "liye": {}, "ke": {}, "ka": {}, "ki": {}, "se": {}, "ko": {},
}

// MaxKeywords caps the keyword list.
const MaxKeywords = 25
