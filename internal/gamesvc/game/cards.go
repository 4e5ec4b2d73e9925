package game

import (
	"math/rand"

	"monopoly-service/internal/gamesvc/board"
)

const deckSize = 16

// CardEffect describes what one drawn card does. Exactly one of GoBack,
// NewPosition or AdvanceToNearest moves the player; NewPosition -1 means
// no movement.
type CardEffect struct {
	Message            string
	MoneyChange        int
	NewPosition        int
	GoBack             int
	AdvanceToNearest   board.Group
	GoToJail           bool
	GetOutOfJailFree   bool
	PropertyRepairs    bool
	HouseRepairCost    int
	HotelRepairCost    int
	CollectFromPlayers int
	PayToPlayers       int
}

// Decks holds the shuffled chance and community chest piles for one match.
// Cards cycle; a drawn card goes to the bottom.
type Decks struct {
	chance    [deckSize]int
	chest     [deckSize]int
	chanceIdx int
	chestIdx  int
}

func NewDecks(rng *rand.Rand) *Decks {
	d := &Decks{}
	for i := 0; i < deckSize; i++ {
		d.chance[i] = i
		d.chest[i] = i
	}
	rng.Shuffle(deckSize, func(i, j int) { d.chance[i], d.chance[j] = d.chance[j], d.chance[i] })
	rng.Shuffle(deckSize, func(i, j int) { d.chest[i], d.chest[j] = d.chest[j], d.chest[i] })
	return d
}

// NewOrderedDecks builds decks in a fixed order, for tests.
func NewOrderedDecks(chance, chest []int) *Decks {
	d := &Decks{}
	for i := 0; i < deckSize; i++ {
		d.chance[i] = chance[i%len(chance)]
		d.chest[i] = chest[i%len(chest)]
	}
	return d
}

func (d *Decks) DrawChance() CardEffect {
	i := d.chance[d.chanceIdx]
	d.chanceIdx = (d.chanceIdx + 1) % deckSize
	return chanceEffect(i)
}

func (d *Decks) DrawCommunityChest() CardEffect {
	i := d.chest[d.chestIdx]
	d.chestIdx = (d.chestIdx + 1) % deckSize
	return chestEffect(i)
}

func chanceEffect(card int) CardEffect {
	e := CardEffect{NewPosition: -1}
	switch card {
	case 0:
		e.Message = "CHANCE: Advance to GO, collect $200"
		e.NewPosition = 0
		e.MoneyChange = 200
	case 1:
		e.Message = "CHANCE: Advance to Illinois Avenue"
		e.NewPosition = 24
	case 2:
		e.Message = "CHANCE: Advance to St. Charles Place"
		e.NewPosition = 11
	case 3:
		e.Message = "CHANCE: Advance to nearest Utility"
		e.AdvanceToNearest = board.GroupUtility
	case 4, 5:
		e.Message = "CHANCE: Advance to nearest Railroad"
		e.AdvanceToNearest = board.GroupRailroad
	case 6:
		e.Message = "CHANCE: Bank pays you dividend of $50"
		e.MoneyChange = 50
	case 7:
		e.Message = "CHANCE: Get Out of Jail Free"
		e.GetOutOfJailFree = true
	case 8:
		e.Message = "CHANCE: Go back 3 spaces"
		e.GoBack = 3
	case 9:
		e.Message = "CHANCE: Go to Jail!"
		e.GoToJail = true
	case 10:
		e.Message = "CHANCE: Make general repairs - $25 per house, $100 per hotel"
		e.PropertyRepairs = true
		e.HouseRepairCost = 25
		e.HotelRepairCost = 100
	case 11:
		e.Message = "CHANCE: Pay poor tax of $15"
		e.MoneyChange = -15
	case 12:
		e.Message = "CHANCE: Take a trip to Reading Railroad"
		e.NewPosition = 5
	case 13:
		e.Message = "CHANCE: Take a walk on the Boardwalk"
		e.NewPosition = 39
	case 14:
		e.Message = "CHANCE: Elected Chairman - Pay each player $50"
		e.PayToPlayers = 50
	case 15:
		e.Message = "CHANCE: Building loan matures - Collect $150"
		e.MoneyChange = 150
	}
	return e
}

func chestEffect(card int) CardEffect {
	e := CardEffect{NewPosition: -1}
	switch card {
	case 0:
		e.Message = "COMMUNITY CHEST: Advance to GO, collect $200"
		e.NewPosition = 0
		e.MoneyChange = 200
	case 1:
		e.Message = "COMMUNITY CHEST: Bank error in your favor - Collect $200"
		e.MoneyChange = 200
	case 2:
		e.Message = "COMMUNITY CHEST: Doctor's fee - Pay $50"
		e.MoneyChange = -50
	case 3:
		e.Message = "COMMUNITY CHEST: From sale of stock you get $50"
		e.MoneyChange = 50
	case 4:
		e.Message = "COMMUNITY CHEST: Get Out of Jail Free"
		e.GetOutOfJailFree = true
	case 5:
		e.Message = "COMMUNITY CHEST: Go to Jail!"
		e.GoToJail = true
	case 6:
		e.Message = "COMMUNITY CHEST: Grand Opera Night - Collect $50 from each player"
		e.CollectFromPlayers = 50
	case 7:
		e.Message = "COMMUNITY CHEST: Holiday Fund matures - Collect $100"
		e.MoneyChange = 100
	case 8:
		e.Message = "COMMUNITY CHEST: Income tax refund - Collect $20"
		e.MoneyChange = 20
	case 9:
		e.Message = "COMMUNITY CHEST: It is your birthday - Collect $10 from each player"
		e.CollectFromPlayers = 10
	case 10:
		e.Message = "COMMUNITY CHEST: Life insurance matures - Collect $100"
		e.MoneyChange = 100
	case 11:
		e.Message = "COMMUNITY CHEST: Hospital fees - Pay $100"
		e.MoneyChange = -100
	case 12:
		e.Message = "COMMUNITY CHEST: School fees - Pay $150"
		e.MoneyChange = -150
	case 13:
		e.Message = "COMMUNITY CHEST: Receive for services $25"
		e.MoneyChange = 25
	case 14:
		e.Message = "COMMUNITY CHEST: Street repairs - $40 per house, $115 per hotel"
		e.PropertyRepairs = true
		e.HouseRepairCost = 40
		e.HotelRepairCost = 115
	case 15:
		e.Message = "COMMUNITY CHEST: Won beauty contest - Collect $10"
		e.MoneyChange = 10
	}
	return e
}
