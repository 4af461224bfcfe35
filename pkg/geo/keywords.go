package geo

import "github.com/umputun/regionpulse/pkg/domain"

// keywordTable is the ordered priority list of region keywords covering
// place names, transliterations and romanized variants. Order is part of
// the resolution contract.
var keywordTable = []keywordRule{
	// Varanasi
	{"varanasi", "Varanasi"}, {"banaras", "Varanasi"}, {"kashi", "Varanasi"},
	{"काशी", "Varanasi"}, {"वाराणसी", "Varanasi"}, {"बनारस", "Varanasi"},
	{"ganga ghat", "Varanasi"}, {"bhu", "Varanasi"},

	// Delhi
	{"delhi", "New Delhi"}, {"new delhi", "New Delhi"}, {"दिल्ली", "New Delhi"},
	{"नई दिल्ली", "New Delhi"}, {"ncr", "New Delhi"}, {"delhi ncr", "New Delhi"},
	{"parliament", "New Delhi"}, {"lok sabha", "New Delhi"},
	{"rajya sabha", "New Delhi"}, {"संसद", "New Delhi"},

	// Mumbai
	{"mumbai", "Mumbai North"}, {"bombay", "Mumbai North"}, {"मुंबई", "Mumbai North"},
	{"bandra", "Mumbai North"}, {"andheri", "Mumbai North"},
	{"borivali", "Mumbai North"}, {"malad", "Mumbai North"},

	// Chennai
	{"chennai", "Chennai South"}, {"madras", "Chennai South"}, {"चेन्नई", "Chennai South"},
	{"tamil nadu", "Chennai South"}, {"तमिलनाडु", "Chennai South"},

	// Kolkata
	{"kolkata", "Kolkata North"}, {"calcutta", "Kolkata North"}, {"कोलकाता", "Kolkata North"},
	{"bengal", "Kolkata North"}, {"बंगाल", "Kolkata North"},

	// Lucknow
	{"lucknow", "Lucknow"}, {"लखनऊ", "Lucknow"},

	// Patna
	{"patna", "Patna Sahib"}, {"पटना", "Patna Sahib"},
	{"bihar", "Patna Sahib"}, {"बिहार", "Patna Sahib"},

	// Gandhinagar
	{"gandhinagar", "Gandhinagar"}, {"गांधीनगर", "Gandhinagar"},
	{"gujarat", "Gandhinagar"}, {"गुजरात", "Gandhinagar"},
	{"ahmedabad", "Gandhinagar"},

	// Bangalore
	{"bangalore", "Bangalore South"}, {"bengaluru", "Bangalore South"},
	{"बैंगलोर", "Bangalore South"}, {"karnataka", "Bangalore South"},

	// Hyderabad
	{"hyderabad", "Hyderabad"}, {"हैदराबाद", "Hyderabad"},
	{"telangana", "Hyderabad"}, {"तेलंगाना", "Hyderabad"},

	// national political references map to the capital region
	{"modi", "New Delhi"}, {"pm modi", "New Delhi"},
	{"prime minister", "New Delhi"}, {"प्रधानमंत्री", "New Delhi"},
	{"bjp headquarters", "New Delhi"}, {"congress headquarters", "New Delhi"},

	// state-level mapping
	{"uttar pradesh", "Lucknow"}, {"up", "Lucknow"},
	{"उत्तर प्रदेश", "Lucknow"},
	{"maharashtra", "Mumbai North"}, {"महाराष्ट्र", "Mumbai North"},
	{"rajasthan", "New Delhi"}, {"madhya pradesh", "New Delhi"},
	{"punjab", "New Delhi"}, {"haryana", "New Delhi"},
}

// genericNationalKeywords resolve to the default region only when no
// specific keyword matched
var genericNationalKeywords = []string{
	"india", "bharat", "भारत", "national", "country",
	"desh", "देश", "sarkar", "सरकार", "government",
}

// regionTable is the fixed reference set of monitored regions
var regionTable = []domain.Region{
	{Name: "Varanasi", AdministrativeArea: "Uttar Pradesh", Lat: 25.3176, Lng: 82.9739},
	{Name: "New Delhi", AdministrativeArea: "Delhi", Lat: 28.6139, Lng: 77.2090},
	{Name: "Mumbai North", AdministrativeArea: "Maharashtra", Lat: 19.1176, Lng: 72.8562},
	{Name: "Chennai South", AdministrativeArea: "Tamil Nadu", Lat: 13.0474, Lng: 80.2090},
	{Name: "Kolkata North", AdministrativeArea: "West Bengal", Lat: 22.6051, Lng: 88.3700},
	{Name: "Lucknow", AdministrativeArea: "Uttar Pradesh", Lat: 26.8467, Lng: 80.9462},
	{Name: "Patna Sahib", AdministrativeArea: "Bihar", Lat: 25.6093, Lng: 85.1376},
	{Name: "Gandhinagar", AdministrativeArea: "Gujarat", Lat: 23.2156, Lng: 72.6369},
	{Name: "Bangalore South", AdministrativeArea: "Karnataka", Lat: 12.9141, Lng: 77.6411},
	{Name: "Hyderabad", AdministrativeArea: "Telangana", Lat: 17.3850, Lng: 78.4867},
}
