package catalog

import "hktravel/internal/domain"

// MTR line codes
const (
	LineTsuenWan       = "TWL"
	LineIsland         = "ISL"
	LineKwunTong       = "KTL"
	LineTungChung      = "TCL"
	LineAirportExpress = "AEL"
	LineSouthIsland    = "SIL"
	LineEastRail       = "EAL"
	LineTuenMa         = "TML"
	LineTseungKwanO    = "TKL"
)

// LineNames maps MTR line codes to display names
var LineNames = map[string]string{
	LineTsuenWan:       "Tsuen Wan Line",
	LineIsland:         "Island Line",
	LineKwunTong:       "Kwun Tong Line",
	LineTungChung:      "Tung Chung Line",
	LineAirportExpress: "Airport Express",
	LineSouthIsland:    "South Island Line",
	LineEastRail:       "East Rail Line",
	LineTuenMa:         "Tuen Ma Line",
	LineTseungKwanO:    "Tseung Kwan O Line",
}

// LineName returns the display name for a line code, or the code itself
func LineName(code string) string {
	if name, ok := LineNames[code]; ok {
		return name
	}
	return code
}

// SampleStations returns the built-in MTR station list
func SampleStations() []*domain.MTRStation {
	return []*domain.MTRStation{
		{ID: "CEN", Code: "CEN", Name: "Central", NameZH: "中環", Lines: []string{LineTsuenWan, LineIsland}, Lat: 22.2819, Lon: 114.1582, District: "Central and Western"},
		{ID: "ADM", Code: "ADM", Name: "Admiralty", NameZH: "金鐘", Lines: []string{LineTsuenWan, LineIsland, LineSouthIsland, LineEastRail}, Lat: 22.2790, Lon: 114.1646, District: "Central and Western"},
		{ID: "SHW", Code: "SHW", Name: "Sheung Wan", NameZH: "上環", Lines: []string{LineIsland}, Lat: 22.2866, Lon: 114.1515, District: "Central and Western"},
		{ID: "WAC", Code: "WAC", Name: "Wan Chai", NameZH: "灣仔", Lines: []string{LineIsland}, Lat: 22.2776, Lon: 114.1731, District: "Wan Chai"},
		{ID: "CAB", Code: "CAB", Name: "Causeway Bay", NameZH: "銅鑼灣", Lines: []string{LineIsland}, Lat: 22.2802, Lon: 114.1839, District: "Wan Chai"},
		{ID: "NOP", Code: "NOP", Name: "North Point", NameZH: "北角", Lines: []string{LineIsland, LineTseungKwanO}, Lat: 22.2912, Lon: 114.2005, District: "Eastern"},
		{ID: "QUB", Code: "QUB", Name: "Quarry Bay", NameZH: "鰂魚涌", Lines: []string{LineIsland, LineTseungKwanO}, Lat: 22.2880, Lon: 114.2096, District: "Eastern"},
		{ID: "OCP", Code: "OCP", Name: "Ocean Park", NameZH: "海洋公園", Lines: []string{LineSouthIsland}, Lat: 22.2486, Lon: 114.1742, District: "Southern"},
		{ID: "TST", Code: "TST", Name: "Tsim Sha Tsui", NameZH: "尖沙咀", Lines: []string{LineTsuenWan}, Lat: 22.2973, Lon: 114.1722, District: "Yau Tsim Mong"},
		{ID: "JOR", Code: "JOR", Name: "Jordan", NameZH: "佐敦", Lines: []string{LineTsuenWan}, Lat: 22.3049, Lon: 114.1716, District: "Yau Tsim Mong"},
		{ID: "YMT", Code: "YMT", Name: "Yau Ma Tei", NameZH: "油麻地", Lines: []string{LineTsuenWan, LineKwunTong}, Lat: 22.3130, Lon: 114.1707, District: "Yau Tsim Mong"},
		{ID: "MOK", Code: "MOK", Name: "Mong Kok", NameZH: "旺角", Lines: []string{LineTsuenWan, LineKwunTong}, Lat: 22.3193, Lon: 114.1694, District: "Yau Tsim Mong"},
		{ID: "PRE", Code: "PRE", Name: "Prince Edward", NameZH: "太子", Lines: []string{LineTsuenWan, LineKwunTong}, Lat: 22.3245, Lon: 114.1682, District: "Yau Tsim Mong"},
		{ID: "SSP", Code: "SSP", Name: "Sham Shui Po", NameZH: "深水埗", Lines: []string{LineTsuenWan}, Lat: 22.3307, Lon: 114.1622, District: "Sham Shui Po"},
		{ID: "LAK", Code: "LAK", Name: "Lai King", NameZH: "荔景", Lines: []string{LineTsuenWan, LineTungChung}, Lat: 22.3484, Lon: 114.1261, District: "Kwai Tsing"},
		{ID: "TSW", Code: "TSW", Name: "Tsuen Wan", NameZH: "荃灣", Lines: []string{LineTsuenWan}, Lat: 22.3736, Lon: 114.1177, District: "Tsuen Wan"},
		{ID: "KOT", Code: "KOT", Name: "Kowloon Tong", NameZH: "九龍塘", Lines: []string{LineKwunTong, LineEastRail}, Lat: 22.3370, Lon: 114.1762, District: "Kowloon City"},
		{ID: "DIH", Code: "DIH", Name: "Diamond Hill", NameZH: "鑽石山", Lines: []string{LineKwunTong, LineTuenMa}, Lat: 22.3400, Lon: 114.2016, District: "Wong Tai Sin"},
		{ID: "WTS", Code: "WTS", Name: "Wong Tai Sin", NameZH: "黃大仙", Lines: []string{LineKwunTong}, Lat: 22.3417, Lon: 114.1938, District: "Wong Tai Sin"},
		{ID: "KWT", Code: "KWT", Name: "Kwun Tong", NameZH: "觀塘", Lines: []string{LineKwunTong}, Lat: 22.3122, Lon: 114.2262, District: "Kwun Tong"},
		{ID: "HUH", Code: "HUH", Name: "Hung Hom", NameZH: "紅磡", Lines: []string{LineEastRail, LineTuenMa}, Lat: 22.3030, Lon: 114.1819, District: "Kowloon City"},
		{ID: "HOK", Code: "HOK", Name: "Hong Kong", NameZH: "香港", Lines: []string{LineTungChung, LineAirportExpress}, Lat: 22.2849, Lon: 114.1581, District: "Central and Western"},
		{ID: "KOW", Code: "KOW", Name: "Kowloon", NameZH: "九龍", Lines: []string{LineTungChung, LineAirportExpress}, Lat: 22.3049, Lon: 114.1615, District: "Yau Tsim Mong"},
		{ID: "TUC", Code: "TUC", Name: "Tung Chung", NameZH: "東涌", Lines: []string{LineTungChung}, Lat: 22.2891, Lon: 113.9416, District: "Islands"},
		{ID: "AIR", Code: "AIR", Name: "Airport", NameZH: "機場", Lines: []string{LineAirportExpress}, Lat: 22.3158, Lon: 113.9366, District: "Islands"},
	}
}

var (
	stopStarFerry     = domain.BusStop{ID: "STAR-FERRY", Name: "Star Ferry Bus Terminus", NameZH: "尖沙咀碼頭巴士總站", Lat: 22.2938, Lon: 114.1686}
	stopNathanJordan  = domain.BusStop{ID: "NATHAN-JORDAN", Name: "Nathan Road, Jordan", NameZH: "彌敦道佐敦", Lat: 22.3045, Lon: 114.1718}
	stopNathanMongKok = domain.BusStop{ID: "NATHAN-MONGKOK", Name: "Nathan Road, Mong Kok", NameZH: "彌敦道旺角", Lat: 22.3180, Lon: 114.1700}
	stopExchangeSq    = domain.BusStop{ID: "EXCHANGE-SQ", Name: "Central (Exchange Square)", NameZH: "中環(交易廣場)", Lat: 22.2839, Lon: 114.1585}
	stopTSTMiddleRd   = domain.BusStop{ID: "TST-MIDDLE-RD", Name: "Middle Road, Tsim Sha Tsui", NameZH: "尖沙咀中間道", Lat: 22.2955, Lon: 114.1728}
	stopHungHomStn    = domain.BusStop{ID: "HUNG-HOM-STN", Name: "Hung Hom Station", NameZH: "紅磡站", Lat: 22.3031, Lon: 114.1813}
)

// SampleBusRoutes returns the built-in franchised bus routes
func SampleBusRoutes() []*domain.BusRoute {
	return []*domain.BusRoute{
		{
			ID: "KMB-1A", Number: "1A", Operator: domain.OperatorKMB,
			Origin: "Star Ferry", Destination: "Sau Mau Ping (Central)",
			Stops: []domain.BusStop{
				stopStarFerry,
				stopNathanJordan,
				stopNathanMongKok,
				{ID: "KOWLOON-CITY", Name: "Kowloon City Market", NameZH: "九龍城街市", Lat: 22.3284, Lon: 114.1910},
				{ID: "SAU-MAU-PING", Name: "Sau Mau Ping (Central)", NameZH: "秀茂坪(中)", Lat: 22.3190, Lon: 114.2310},
			},
			FirstBus: "06:00", LastBus: "00:00", FrequencyMinutes: 8, Fare: 7.3,
		},
		{
			ID: "KMB-2", Number: "2", Operator: domain.OperatorKMB,
			Origin: "Star Ferry", Destination: "So Uk",
			Stops: []domain.BusStop{
				stopStarFerry,
				stopNathanJordan,
				{ID: "SHAM-SHUI-PO", Name: "Cheung Sha Wan Road, Sham Shui Po", NameZH: "長沙灣道深水埗", Lat: 22.3304, Lon: 114.1610},
				{ID: "SO-UK", Name: "So Uk Estate", NameZH: "蘇屋邨", Lat: 22.3400, Lon: 114.1560},
			},
			FirstBus: "05:45", LastBus: "00:30", FrequencyMinutes: 10, Fare: 6.8,
		},
		{
			ID: "CTB-6", Number: "6", Operator: domain.OperatorCTB,
			Origin: "Central (Exchange Square)", Destination: "Stanley Prison",
			Stops: []domain.BusStop{
				stopExchangeSq,
				{ID: "WONG-NAI-CHUNG", Name: "Wong Nai Chung Gap", NameZH: "黃泥涌峽", Lat: 22.2560, Lon: 114.1960},
				{ID: "REPULSE-BAY", Name: "Repulse Bay Beach", NameZH: "淺水灣海灘", Lat: 22.2366, Lon: 114.1967},
				{ID: "STANLEY-VILLAGE", Name: "Stanley Village", NameZH: "赤柱村", Lat: 22.2184, Lon: 114.2125},
			},
			FirstBus: "06:15", LastBus: "23:30", FrequencyMinutes: 15, Fare: 8.9,
		},
		{
			ID: "CTB-15", Number: "15", Operator: domain.OperatorCTB,
			Origin: "Central (Exchange Square)", Destination: "The Peak",
			Stops: []domain.BusStop{
				stopExchangeSq,
				{ID: "MAGAZINE-GAP", Name: "Magazine Gap Road", NameZH: "馬己仙峽道", Lat: 22.2702, Lon: 114.1613},
				{ID: "THE-PEAK", Name: "The Peak Tower", NameZH: "山頂凌霄閣", Lat: 22.2710, Lon: 114.1500},
			},
			FirstBus: "06:15", LastBus: "00:15", FrequencyMinutes: 12, Fare: 11.8,
		},
		{
			ID: "CTB-A21", Number: "A21", Operator: domain.OperatorCTB,
			Origin: "Airport (Ground Transportation Centre)", Destination: "Hung Hom Station",
			Stops: []domain.BusStop{
				{ID: "AIRPORT-GTC", Name: "Airport (Ground Transportation Centre)", NameZH: "機場(地面運輸中心)", Lat: 22.3159, Lon: 113.9367},
				stopNathanMongKok,
				stopTSTMiddleRd,
				stopHungHomStn,
			},
			FirstBus: "06:00", LastBus: "00:00", FrequencyMinutes: 10, Fare: 33.4,
		},
		{
			ID: "KMB-5C", Number: "5C", Operator: domain.OperatorKMB,
			Origin: "Star Ferry", Destination: "Tsz Wan Shan",
			Stops: []domain.BusStop{
				stopStarFerry,
				stopTSTMiddleRd,
				stopHungHomStn,
				{ID: "TO-KWA-WAN", Name: "To Kwa Wan Road", NameZH: "土瓜灣道", Lat: 22.3170, Lon: 114.1880},
				{ID: "TSZ-WAN-SHAN", Name: "Tsz Wan Shan (Central)", NameZH: "慈雲山(中)", Lat: 22.3500, Lon: 114.2000},
			},
			FirstBus: "06:00", LastBus: "23:45", FrequencyMinutes: 12, Fare: 6.8,
		},
	}
}

// SampleLocations returns the built-in searchable places
func SampleLocations() []*domain.Location {
	return []*domain.Location{
		{ID: "victoria-peak", Name: "Victoria Peak", NameZH: "太平山頂", Address: "128 Peak Road, The Peak", District: "Central and Western", Lat: 22.2759, Lon: 114.1455, Category: domain.CategoryLandmark},
		{ID: "star-ferry-tst", Name: "Star Ferry Pier (Tsim Sha Tsui)", NameZH: "天星碼頭(尖沙咀)", Address: "Star Ferry Pier, Tsim Sha Tsui", District: "Yau Tsim Mong", Lat: 22.2938, Lon: 114.1686, Category: domain.CategoryTransport},
		{ID: "avenue-of-stars", Name: "Avenue of Stars", NameZH: "星光大道", Address: "Tsim Sha Tsui Promenade", District: "Yau Tsim Mong", Lat: 22.2931, Lon: 114.1747, Category: domain.CategoryLandmark},
		{ID: "temple-street", Name: "Temple Street Night Market", NameZH: "廟街夜市", Address: "Temple Street, Jordan", District: "Yau Tsim Mong", Lat: 22.3057, Lon: 114.1699, Category: domain.CategoryShopping},
		{ID: "ladies-market", Name: "Ladies' Market", NameZH: "女人街", Address: "Tung Choi Street, Mong Kok", District: "Yau Tsim Mong", Lat: 22.3186, Lon: 114.1707, Category: domain.CategoryShopping},
		{ID: "ifc-mall", Name: "IFC Mall", NameZH: "國際金融中心商場", Address: "8 Finance Street, Central", District: "Central and Western", Lat: 22.2849, Lon: 114.1583, Category: domain.CategoryShopping},
		{ID: "lan-kwai-fong", Name: "Lan Kwai Fong", NameZH: "蘭桂坊", Address: "D'Aguilar Street, Central", District: "Central and Western", Lat: 22.2810, Lon: 114.1554, Category: domain.CategoryLandmark},
		{ID: "times-square", Name: "Times Square", NameZH: "時代廣場", Address: "1 Matheson Street, Causeway Bay", District: "Wan Chai", Lat: 22.2783, Lon: 114.1822, Category: domain.CategoryShopping},
		{ID: "ocean-park", Name: "Ocean Park", NameZH: "海洋公園", Address: "180 Wong Chuk Hang Road, Aberdeen", District: "Southern", Lat: 22.2467, Lon: 114.1757, Category: domain.CategoryLandmark},
		{ID: "repulse-bay", Name: "Repulse Bay", NameZH: "淺水灣", Address: "Beach Road, Repulse Bay", District: "Southern", Lat: 22.2366, Lon: 114.1967, Category: domain.CategoryNature},
		{ID: "stanley-market", Name: "Stanley Market", NameZH: "赤柱市集", Address: "Stanley Main Street, Stanley", District: "Southern", Lat: 22.2187, Lon: 114.2108, Category: domain.CategoryShopping},
		{ID: "m-plus", Name: "M+ Museum", NameZH: "M+博物館", Address: "38 Museum Drive, West Kowloon Cultural District", District: "Yau Tsim Mong", Lat: 22.3017, Lon: 114.1597, Category: domain.CategoryCulture},
		{ID: "wong-tai-sin-temple", Name: "Wong Tai Sin Temple", NameZH: "黃大仙祠", Address: "2 Chuk Yuen Village, Wong Tai Sin", District: "Wong Tai Sin", Lat: 22.3420, Lon: 114.1937, Category: domain.CategoryCulture},
		{ID: "kwun-tong-promenade", Name: "Kwun Tong Promenade", NameZH: "觀塘海濱花園", Address: "Hoi Bun Road, Kwun Tong", District: "Kwun Tong", Lat: 22.3094, Lon: 114.2222, Category: domain.CategoryNature},
		{ID: "tian-tan-buddha", Name: "Tian Tan Buddha", NameZH: "天壇大佛", Address: "Ngong Ping, Lantau Island", District: "Islands", Lat: 22.2540, Lon: 113.9050, Category: domain.CategoryCulture},
		{ID: "citygate", Name: "Citygate Outlets", NameZH: "東薈城名店倉", Address: "20 Tat Tung Road, Tung Chung", District: "Islands", Lat: 22.2894, Lon: 113.9414, Category: domain.CategoryShopping},
		{ID: "hk-airport", Name: "Hong Kong International Airport", NameZH: "香港國際機場", Address: "1 Sky Plaza Road, Chek Lap Kok", District: "Islands", Lat: 22.3080, Lon: 113.9185, Category: domain.CategoryTransport},
		{ID: "hku", Name: "The University of Hong Kong", NameZH: "香港大學", Address: "Pok Fu Lam Road", District: "Central and Western", Lat: 22.2830, Lon: 114.1371, Category: domain.CategoryCulture},
	}
}

// LineTermini lists the two terminal stations of each MTR line as display names
var LineTermini = map[string][2]string{
	LineTsuenWan:       {"Central", "Tsuen Wan"},
	LineIsland:         {"Kennedy Town", "Chai Wan"},
	LineKwunTong:       {"Whampoa", "Tiu Keng Leng"},
	LineTungChung:      {"Hong Kong", "Tung Chung"},
	LineAirportExpress: {"Hong Kong", "AsiaWorld-Expo"},
	LineSouthIsland:    {"Admiralty", "South Horizons"},
	LineEastRail:       {"Admiralty", "Lo Wu"},
	LineTuenMa:         {"Tuen Mun", "Wu Kai Sha"},
	LineTseungKwanO:    {"North Point", "Po Lam"},
}
