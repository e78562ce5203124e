package geo

// districtCities maps each supported district to its municipalities.
var districtCities = map[string][]string{
	"Kathmandu": {
		"Kathmandu", "Kirtipur", "Budhanilkantha", "Chandragiri", "Dakshinkali",
		"Gokarneshwor", "Kageshwori Manohara", "Nagarjun", "Shankharapur",
		"Tarakeshwor", "Tokha",
	},
	"Lalitpur": {
		"Lalitpur", "Godawari", "Mahalaxmi", "Konjyosom", "Bagmati", "Mahankal",
	},
	"Bhaktapur": {
		"Bhaktapur", "Changunarayan", "Madhyapur Thimi", "Suryabinayak",
	},
	"Kaski": {
		"Pokhara", "Annapurna", "Machhapuchchhre", "Madi", "Rupa",
	},
	"Morang": {
		"Biratnagar", "Belbari", "Letang", "Pathari Shanischare", "Rangeli",
		"Ratuwamai", "Sundar Haraincha", "Urlabari",
	},
	"Sunsari": {
		"Itahari", "Dharan", "Inaruwa", "Duhabi", "Ramdhuni", "Barahachhetra",
	},
	"Chitwan": {
		"Bharatpur", "Kalika", "Khairahani", "Madi", "Rapti", "Ratnanagar",
	},
	"Rupandehi": {
		"Butwal", "Siddharthanagar", "Tilottama", "Devdaha", "Lumbini Sanskritik",
		"Sainamaina",
	},
	"Banke": {
		"Nepalgunj", "Kohalpur", "Baijanath", "Khajura", "Narainapur",
	},
	"Kailali": {
		"Dhangadhi", "Tikapur", "Lamkichuha", "Ghodaghodi", "Gauriganga",
		"Godawari", "Bhajani",
	},
	"Jhapa": {
		"Birtamod", "Damak", "Mechinagar", "Bhadrapur", "Arjundhara", "Gauradaha",
		"Kankai", "Shivasatakshi",
	},
	"Parsa": {
		"Birgunj", "Pokhariya", "Bahudarmai", "Parsagadhi",
	},
	"Makwanpur": {
		"Hetauda", "Thaha", "Indrasarowar", "Bhimphedi",
	},
	"Dang": {
		"Ghorahi", "Tulsipur", "Lamahi", "Gadhawa", "Rajpur",
	},
	"Surkhet": {
		"Birendranagar", "Bheriganga", "Gurbhakot", "Lekbeshi", "Panchapuri",
	},
}
