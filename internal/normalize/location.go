package normalize

import "github.com/crimeprep/internal/records"

// LocationTable merges the raw location_description vocabulary into coarse
// buckets. Slash variants with and without surrounding spaces are both listed;
// the dataset carries both spellings.
var LocationTable = MustTable("location_description",
	Mapping{Canonical: "CTA", Sources: []string{
		"CTA TRAIN", "CTA PLATFORM", "CTA BUS", "CTA BUS STOP", "CTA STATION", "CTA GARAGE / OTHER PROPERTY",
		"CTA TRACKS - RIGHT OF WAY", "CTA PARKING LOT / GARAGE / OTHER PROPERTY", `CTA "L" PLATFORM`,
		"CTA PROPERTY", `CTA "L" TRAIN`, "CTA SUBWAY STATION",
	}},
	Mapping{Canonical: "ALLEY", Sources: []string{"GANGWAY"}},
	Mapping{Canonical: "SPORTS", Sources: []string{
		"ATHLETIC CLUB", "SPORTS ARENA/STADIUM", "SPORTS ARENA / STADIUM", "CLUB",
	}},
	Mapping{Canonical: "VACANT", Sources: []string{"VACANT LOT/LAND", "VACANT LOT / LAND", "VACANT LOT"}},
	Mapping{Canonical: "GAS STATION", Sources: []string{"GAS STATION DRIVE/PROP."}},
	Mapping{Canonical: "WATER", Sources: []string{
		"LAKEFRONT/WATERFRONT/RIVERBANK", "POOL ROOM", "BOAT/WATERCRAFT", "LAKEFRONT / WATERFRONT / RIVERBANK",
		"BOAT / WATERCRAFT", "RIVER BANK", "POOLROOM", "LAKE", "LAGOON",
	}},
	Mapping{Canonical: "BANK", Sources: []string{
		"ATM (AUTOMATIC TELLER MACHINE)", "CURRENCY EXCHANGE", "CREDIT UNION", "SAVINGS AND LOAN",
	}},
	Mapping{Canonical: "STREET", Sources: []string{
		"HIGHWAY/EXPRESSWAY", "BRIDGE", "HIGHWAY / EXPRESSWAY", "EXPRESSWAY EMBANKMENT",
	}},
	Mapping{Canonical: "RESIDENCE", Sources: []string{
		"RESIDENCE PORCH/HALLWAY", "RESIDENCE-GARAGE", "RESIDENCE - YARD (FRONT / BACK)", "RESIDENCE - PORCH / HALLWAY",
		"RESIDENCE - GARAGE", "RESIDENTIAL YARD (FRONT/BACK)", "HOUSE", "ROOMING HOUSE", "PORCH", "YARD", "HALLWAY",
		"GARAGE", "VESTIBULE", "STAIRWELL", "BASEMENT", "LAUNDRY ROOM", "DRIVEWAY", "DRIVEWAY - RESIDENTIAL",
	}},
	Mapping{Canonical: "COLLEGE", Sources: []string{
		"COLLEGE/UNIVERSITY GROUNDS", "COLLEGE/UNIVERSITY RESIDENCE HALL", "COLLEGE / UNIVERSITY - GROUNDS",
		"COLLEGE / UNIVERSITY - RESIDENCE HALL",
	}},
	// "" is a recorded value here, distinct from null.
	Mapping{Canonical: "VEHICLE", Sources: []string{
		"VEHICLE NON-COMMERCIAL", "VEHICLE-COMMERCIAL", "VEHICLE - OTHER RIDE SHARE SERVICE (E.G., UBER, LYFT)",
		"VEHICLE - OTHER RIDE SERVICE", "VEHICLE - DELIVERY TRUCK", "VEHICLE - OTHER RIDE SHARE SERVICE (LYFT, UBER, ETC.)",
		"VEHICLE - COMMERCIAL", "VEHICLE-COMMERCIAL - TROLLEY BUS", "VEHICLE-COMMERCIAL - ENTERTAINMENT/PARTY BUS",
		"VEHICLE - COMMERCIAL: TROLLEY BUS", "VEHICLE - COMMERCIAL: ENTERTAINMENT / PARTY BUS", "TAXICAB", "",
		"AUTO / BOAT / RV DEALERSHIP", "AUTO", "DELIVERY TRUCK", "GARAGE/AUTO REPAIR", "TAXI CAB", "TRUCK", "TRAILER",
	}},
	Mapping{Canonical: "POLICE", Sources: []string{
		"POLICE FACILITY/VEH PARKING LOT", "POLICE FACILITY / VEHICLE PARKING LOT", "JAIL / LOCK-UP FACILITY",
		"FIRE STATION", "FOREST PRESERVE",
	}},
	Mapping{Canonical: "PARKING", Sources: []string{
		"PARKING LOT/GARAGE(NON.RESID.)", "CHA PARKING LOT/GROUNDS", "PARKING LOT / GARAGE (NON RESIDENTIAL)",
		"CHA PARKING LOT / GROUNDS", "PARKING LOT", "CHA PARKING LOT",
	}},
	Mapping{Canonical: "AIRPORT", Sources: []string{
		"AIRPORT TERMINAL UPPER LEVEL - SECURE AREA", "AIRPORT TERMINAL LOWER LEVEL - NON-SECURE AREA",
		"AIRPORT BUILDING NON-TERMINAL - NON-SECURE AREA", "AIRPORT VENDING ESTABLISHMENT", "AIRPORT/AIRCRAFT", "AIRCRAFT",
		"AIRPORT PARKING LOT", "AIRPORT EXTERIOR - NON-SECURE AREA", "AIRPORT TERMINAL LOWER LEVEL - SECURE AREA",
		"AIRPORT BUILDING NON-TERMINAL - SECURE AREA", "AIRPORT EXTERIOR - SECURE AREA", "AIRPORT TRANSPORTATION SYSTEM (ATS)",
		"AIRPORT TERMINAL MEZZANINE - NON-SECURE AREA", "AIRPORT TERMINAL UPPER LEVEL - NON-SECURE AREA",
	}},
	Mapping{Canonical: "SCHOOL", Sources: []string{
		"SCHOOL, PUBLIC, BUILDING", "SCHOOL, PUBLIC, GROUNDS", "SCHOOL - PUBLIC BUILDING", "SCHOOL - PUBLIC GROUNDS",
		"PUBLIC HIGH SCHOOL", "SCHOOL, PRIVATE, BUILDING", "SCHOOL, PRIVATE, GROUNDS", "SCHOOL - PRIVATE BUILDING",
		"SCHOOL - PRIVATE GROUNDS", "SCHOOL YARD", "DAY CARE CENTER",
	}},
	Mapping{Canonical: "RESTAURANT", Sources: []string{"BAR OR TAVERN", "TAVERN"}},
	Mapping{Canonical: "STORE", Sources: []string{
		"SMALL RETAIL STORE", "DEPARTMENT STORE", "GROCERY FOOD STORE", "CONVENIENCE STORE", "DRUG STORE",
		"TAVERN/LIQUOR STORE", "CLEANING STORE", "APPLIANCE STORE", "TAVERN / LIQUOR STORE", "RETAIL STORE",
		"LIQUOR STORE", "NEWSSTAND", "PAWN SHOP", "MOVIE HOUSE/THEATER", "MOVIE HOUSE / THEATER", "BARBERSHOP",
		"CAR WASH", "COIN OPERATED MACHINE", "BOWLING ALLEY", "KENNEL", "BARBER SHOP/BEAUTY SALON", "CLEANERS/LAUNDROMAT",
	}},
	Mapping{Canonical: "HOSPITAL", Sources: []string{
		"HOSPITAL BUILDING/GROUNDS", "HOSPITAL BUILDING / GROUNDS", "ANIMAL HOSPITAL", "NURSING HOME/RETIREMENT HOME",
		"NURSING / RETIREMENT HOME", "NURSING HOME",
	}},
	Mapping{Canonical: "HOTEL", Sources: []string{"HOTEL/MOTEL", "HOTEL / MOTEL", "MOTEL"}},
	Mapping{Canonical: "OFFICE", Sources: []string{
		"COMMERCIAL / BUSINESS OFFICE", "MEDICAL/DENTAL OFFICE", "MEDICAL / DENTAL OFFICE",
	}},
	Mapping{Canonical: "BUILDING", Sources: []string{
		"ABANDONED BUILDING", "GOVERNMENT BUILDING/PROPERTY", "FACTORY/MANUFACTURING BUILDING",
		"GOVERNMENT BUILDING / PROPERTY", "FEDERAL BUILDING", "FACTORY / MANUFACTURING BUILDING", "GOVERNMENT BUILDING",
		"WAREHOUSE", "ELEVATOR", "YMCA",
	}},
	Mapping{Canonical: "CHA", Sources: []string{
		"CHA APARTMENT", "CHA HALLWAY/STAIRWELL/ELEVATOR", "CHA HALLWAY / STAIRWELL / ELEVATOR", "CHA GROUNDS",
		"CHA PLAY LOT", "CHA HALLWAY", "CHA ELEVATOR",
	}},
	Mapping{Canonical: "CHURCH", Sources: []string{
		"CHURCH/SYNAGOGUE/PLACE OF WORSHIP", "CHURCH / SYNAGOGUE / PLACE OF WORSHIP", "CHURCH PROPERTY",
	}},
	Mapping{Canonical: "OTHER", Sources: []string{
		"OTHER (SPECIFY)", "OTHER RAILROAD PROP / TRAIN DEPOT", "OTHER COMMERCIAL TRANSPORTATION",
		"OTHER RAILROAD PROPERTY / TRAIN DEPOT", "CEMETARY", "FARM", "HORSE STABLE", "RAILROAD PROPERTY",
		"WOODED AREA", "SEWER",
	}},
)

// NormalizeLocations rewrites location_description to bucket labels in place.
// Values outside the table, including imputed defaults, pass through.
func NormalizeLocations(f *records.Frame) (int, error) {
	return LocationTable.RewriteColumn(f, records.ColLocation)
}
