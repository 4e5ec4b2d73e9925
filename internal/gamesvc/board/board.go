// Package board defines the static 40-space board layout: space kinds,
// purchase prices, rent ladders and color groups. The table is immutable;
// per-match ownership state lives with the match itself.
package board

const Size = 40

// Space positions with fixed roles.
const (
	PosGo          = 0
	PosIncomeTax   = 4
	PosJail        = 10
	PosFreeParking = 20
	PosGoToJail    = 30
	PosLuxuryTax   = 38
)

const (
	IncomeTaxAmount = 200
	LuxuryTaxAmount = 100
)

type SpaceKind int

const (
	KindGo SpaceKind = iota
	KindStreet
	KindRailroad
	KindUtility
	KindTax
	KindChance
	KindCommunityChest
	KindJail
	KindFreeParking
	KindGoToJail
)

type Group int

const (
	GroupNone Group = iota
	GroupBrown
	GroupLightBlue
	GroupPink
	GroupOrange
	GroupRed
	GroupYellow
	GroupGreen
	GroupBlue
	GroupRailroad
	GroupUtility
)

// Space is one immutable board cell. Rent holds the ladder for improvement
// levels 0..5 (base, 1-4 houses, hotel); zero for non-streets.
type Space struct {
	Name        string
	Kind        SpaceKind
	Group       Group
	Price       int
	Rent        [6]int
	UpgradeCost int
	TaxAmount   int
}

func street(name string, group Group, price int, rent [6]int, upgradeCost int) Space {
	return Space{Name: name, Kind: KindStreet, Group: group, Price: price, Rent: rent, UpgradeCost: upgradeCost}
}

var Spaces = [Size]Space{
	0:  {Name: "GO", Kind: KindGo},
	1:  street("Mediterranean Avenue", GroupBrown, 60, [6]int{2, 10, 30, 90, 160, 250}, 50),
	2:  {Name: "Community Chest", Kind: KindCommunityChest},
	3:  street("Baltic Avenue", GroupBrown, 60, [6]int{4, 20, 60, 180, 320, 450}, 50),
	4:  {Name: "Income Tax", Kind: KindTax, TaxAmount: IncomeTaxAmount},
	5:  {Name: "Reading Railroad", Kind: KindRailroad, Group: GroupRailroad, Price: 200},
	6:  street("Oriental Avenue", GroupLightBlue, 100, [6]int{6, 30, 90, 270, 400, 550}, 50),
	7:  {Name: "Chance", Kind: KindChance},
	8:  street("Vermont Avenue", GroupLightBlue, 100, [6]int{6, 30, 90, 270, 400, 550}, 50),
	9:  street("Connecticut Avenue", GroupLightBlue, 120, [6]int{8, 40, 100, 300, 450, 600}, 50),
	10: {Name: "Jail / Just Visiting", Kind: KindJail},
	11: street("St. Charles Place", GroupPink, 140, [6]int{10, 50, 150, 450, 625, 750}, 100),
	12: {Name: "Electric Company", Kind: KindUtility, Group: GroupUtility, Price: 150},
	13: street("States Avenue", GroupPink, 140, [6]int{10, 50, 150, 450, 625, 750}, 100),
	14: street("Virginia Avenue", GroupPink, 160, [6]int{12, 60, 180, 500, 700, 900}, 100),
	15: {Name: "Pennsylvania Railroad", Kind: KindRailroad, Group: GroupRailroad, Price: 200},
	16: street("St. James Place", GroupOrange, 180, [6]int{14, 70, 200, 550, 750, 950}, 100),
	17: {Name: "Community Chest", Kind: KindCommunityChest},
	18: street("Tennessee Avenue", GroupOrange, 180, [6]int{14, 70, 200, 550, 750, 950}, 100),
	19: street("New York Avenue", GroupOrange, 200, [6]int{16, 80, 220, 600, 800, 1000}, 100),
	20: {Name: "Free Parking", Kind: KindFreeParking},
	21: street("Kentucky Avenue", GroupRed, 220, [6]int{18, 90, 250, 700, 875, 1050}, 150),
	22: {Name: "Chance", Kind: KindChance},
	23: street("Indiana Avenue", GroupRed, 220, [6]int{18, 90, 250, 700, 875, 1050}, 150),
	24: street("Illinois Avenue", GroupRed, 240, [6]int{20, 100, 300, 750, 925, 1100}, 150),
	25: {Name: "B&O Railroad", Kind: KindRailroad, Group: GroupRailroad, Price: 200},
	26: street("Atlantic Avenue", GroupYellow, 260, [6]int{22, 110, 330, 800, 975, 1150}, 150),
	27: street("Ventnor Avenue", GroupYellow, 260, [6]int{22, 110, 330, 800, 975, 1150}, 150),
	28: {Name: "Water Works", Kind: KindUtility, Group: GroupUtility, Price: 150},
	29: street("Marvin Gardens", GroupYellow, 280, [6]int{24, 120, 360, 850, 1025, 1200}, 150),
	30: {Name: "Go To Jail", Kind: KindGoToJail},
	31: street("Pacific Avenue", GroupGreen, 300, [6]int{26, 130, 390, 900, 1100, 1275}, 200),
	32: street("North Carolina Avenue", GroupGreen, 300, [6]int{26, 130, 390, 900, 1100, 1275}, 200),
	33: {Name: "Community Chest", Kind: KindCommunityChest},
	34: street("Pennsylvania Avenue", GroupGreen, 320, [6]int{28, 150, 450, 1000, 1200, 1400}, 200),
	35: {Name: "Short Line Railroad", Kind: KindRailroad, Group: GroupRailroad, Price: 200},
	36: {Name: "Chance", Kind: KindChance},
	37: street("Park Place", GroupBlue, 350, [6]int{35, 175, 500, 1100, 1300, 1500}, 200),
	38: {Name: "Luxury Tax", Kind: KindTax, TaxAmount: LuxuryTaxAmount},
	39: street("Boardwalk", GroupBlue, 400, [6]int{50, 200, 600, 1400, 1700, 2000}, 200),
}

// Purchasable reports whether a space can be owned.
func Purchasable(pos int) bool {
	switch Spaces[pos].Kind {
	case KindStreet, KindRailroad, KindUtility:
		return true
	}
	return false
}

// GroupMembers returns the positions sharing a color group.
func GroupMembers(g Group) []int {
	var members []int
	for i, s := range Spaces {
		if s.Group == g && g != GroupNone {
			members = append(members, i)
		}
	}
	return members
}

// MortgageValue is half the purchase price.
func MortgageValue(pos int) int {
	return Spaces[pos].Price / 2
}

// UnmortgageCost is the mortgage principal plus a 10% premium.
func UnmortgageCost(pos int) int {
	v := MortgageValue(pos)
	return v + v/10
}
