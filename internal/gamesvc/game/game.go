// Package game implements the authoritative two-player match state machine:
// turn order, dice and jail rules, property transactions, debt and win
// conditions. A Match holds all of its own state; nothing here is shared
// across matches.
package game

import (
	"errors"
	"fmt"
	"math/rand"

	"monopoly-service/internal/comm"
	"monopoly-service/internal/gamesvc/board"
)

const (
	StartingMoney         = 1500
	GoBonus               = 200
	JailFine              = 50
	MaxJailTurns          = 3
	MaxConsecutiveDoubles = 3
	MaxUpgrades           = 5
)

var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrInvalidMove = errors.New("invalid move")
	ErrNotFound    = errors.New("match not found")
	ErrPoolFull    = errors.New("no free match slots")
)

type Phase int

const (
	PhaseAwaitingRoll Phase = iota
	PhaseAwaitingBuy
	PhaseInDebt
	PhasePaused
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingRoll:
		return "awaiting_roll"
	case PhaseAwaitingBuy:
		return "awaiting_buy"
	case PhaseInDebt:
		return "in_debt"
	case PhasePaused:
		return "paused"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// End reasons reported with the final result.
const (
	ReasonBankruptcy = "bankruptcy"
	ReasonSurrender  = "surrender"
	ReasonDisconnect = "disconnect"
)

type Player struct {
	UserID             uint32
	Username           string
	Money              int
	Position           int
	Jailed             bool
	TurnsInJail        int
	ConsecutiveDoubles int
	JailCards          int
}

type Property struct {
	Owner     int // -1 unowned, else player index
	Upgrades  int
	Mortgaged bool
}

// Roller produces one roll of two dice, each in [1,6]. Injectable so tests
// can script exact sequences.
type Roller func() (int, int)

func randRoller() (int, int) {
	return rand.Intn(6) + 1, rand.Intn(6) + 1
}

// Match is one live game. Methods are not safe for concurrent use; the
// dispatch loop serializes all access to a match.
type Match struct {
	ID         uint32
	Players    [2]Player
	Properties [board.Size]Property

	Current          int
	Phase            Phase
	PhaseBeforePause Phase
	Paused           bool
	PausedBy         int
	Debtor           int
	LastRoll         [2]int
	JustLeftJail     bool
	MoveCount        int
	Message          string
	Message2         string

	Winner    int // player index, -1 until ended or on draw
	EndReason string

	roll  Roller
	decks *Decks
}

func NewMatch(id uint32, p0ID uint32, p0Name string, p1ID uint32, p1Name string) *Match {
	m := &Match{
		ID:       id,
		PausedBy: -1,
		Debtor:   -1,
		Winner:   -1,
		roll:     randRoller,
		decks:    NewDecks(rand.New(rand.NewSource(rand.Int63()))),
	}
	m.Players[0] = Player{UserID: p0ID, Username: p0Name, Money: StartingMoney}
	m.Players[1] = Player{UserID: p1ID, Username: p1Name, Money: StartingMoney}
	for i := range m.Properties {
		m.Properties[i].Owner = -1
	}
	return m
}

// SetRoller swaps the dice source.
func (m *Match) SetRoller(r Roller) { m.roll = r }

// SetDecks swaps the card decks.
func (m *Match) SetDecks(d *Decks) { m.decks = d }

func (m *Match) PlayerIndex(userID uint32) int {
	for i := range m.Players {
		if m.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// checkTurn validates the common preconditions for a turn action.
func (m *Match) checkTurn(player int, want Phase) error {
	if m.Phase == PhaseEnded {
		return fmt.Errorf("%w: game over", ErrInvalidMove)
	}
	if m.Paused {
		return fmt.Errorf("%w: game is paused", ErrInvalidMove)
	}
	if m.Current != player {
		return ErrNotYourTurn
	}
	if m.Phase != want {
		return fmt.Errorf("%w: wrong phase %s", ErrInvalidMove, m.Phase)
	}
	return nil
}

func (m *Match) nextPlayer() {
	m.Players[m.Current].ConsecutiveDoubles = 0
	m.JustLeftJail = false
	m.Current = 1 - m.Current
	m.Phase = PhaseAwaitingRoll
}

func (m *Match) sendToJail(player int) {
	p := &m.Players[player]
	p.Jailed = true
	p.Position = board.PosJail
	p.TurnsInJail = 0
	p.ConsecutiveDoubles = 0
	m.Message2 = fmt.Sprintf("%s sent to jail!", p.Username)
}

// removeMoney deducts from a player and flips the match into debt when the
// balance goes negative.
func (m *Match) removeMoney(player, amount int) {
	m.Players[player].Money -= amount
	if m.Players[player].Money < 0 {
		m.Phase = PhaseInDebt
		m.Debtor = player
	}
}

func (m *Match) payPlayer(payer, receiver, sum int) {
	m.Message2 = fmt.Sprintf("%s paid %s $%d", m.Players[payer].Username, m.Players[receiver].Username, sum)
	m.Players[receiver].Money += sum
	m.removeMoney(payer, sum)
}

// settleDebt clears the debt phase once the debtor is solvent again. The
// debtor's turn ends when they were the one to move.
func (m *Match) settleDebt() {
	if m.Phase != PhaseInDebt || m.Players[m.Debtor].Money < 0 {
		return
	}
	debtor := m.Debtor
	m.Debtor = -1
	m.Phase = PhaseAwaitingRoll
	m.Message = ""
	if debtor == m.Current {
		m.nextPlayer()
	}
}

// RollDice runs one roll for the current player: jail handling, doubles
// tracking, movement with the pass-start bonus, and landing resolution.
func (m *Match) RollDice(player int) error {
	if err := m.checkTurn(player, PhaseAwaitingRoll); err != nil {
		return err
	}

	d1, d2 := m.roll()
	total := d1 + d2
	isDoubles := d1 == d2
	m.LastRoll[0], m.LastRoll[1] = d1, d2
	m.MoveCount++
	m.Message2 = ""

	p := &m.Players[player]

	if p.Jailed {
		p.TurnsInJail++
		switch {
		case isDoubles:
			p.Jailed = false
			p.TurnsInJail = 0
			m.JustLeftJail = true
			m.Message = "Rolled doubles! Out of jail!"
		case p.TurnsInJail >= MaxJailTurns:
			if p.Money >= JailFine {
				m.removeMoney(player, JailFine)
				p.Jailed = false
				p.TurnsInJail = 0
				m.JustLeftJail = true
				m.Message = "3rd turn! Paid fine, rolled"
			} else {
				m.Message = "3rd turn but no money for fine!"
				m.Phase = PhaseInDebt
				m.Debtor = player
				return nil
			}
		default:
			m.Message = fmt.Sprintf("No doubles. In jail %d/%d turns", p.TurnsInJail, MaxJailTurns)
			m.nextPlayer()
			return nil
		}
	} else if isDoubles {
		p.ConsecutiveDoubles++
		if p.ConsecutiveDoubles >= MaxConsecutiveDoubles {
			m.sendToJail(player)
			m.nextPlayer()
			return nil
		}
	} else {
		p.ConsecutiveDoubles = 0
	}

	// Move with pass-start bonus on wrap; landing exactly on 0 counts.
	if p.Position+total >= board.Size {
		p.Money += GoBonus
	}
	p.Position = (p.Position + total) % board.Size
	m.resolveLanding(player)

	if m.Phase == PhaseAwaitingRoll {
		if !isDoubles || m.JustLeftJail {
			m.nextPlayer()
		}
	}
	return nil
}

func (m *Match) resolveLanding(player int) {
	pos := m.Players[player].Position
	space := board.Spaces[pos]

	if board.Purchasable(pos) && !m.Properties[pos].Mortgaged {
		prop := &m.Properties[pos]
		switch {
		case prop.Owner == -1:
			if m.Players[player].Money >= space.Price {
				m.Phase = PhaseAwaitingBuy
				m.Message = fmt.Sprintf("Buy %s for $%d?", space.Name, space.Price)
			}
		case prop.Owner != player:
			m.chargeRent(player, pos)
		}
		return
	}

	switch space.Kind {
	case board.KindGo:
		m.Message = "Landed on GO"
	case board.KindJail:
		m.Message = "Just Visiting Jail"
	case board.KindFreeParking:
		m.Message = "Free Parking"
	case board.KindTax:
		m.Message = fmt.Sprintf("%s: $%d", space.Name, space.TaxAmount)
		m.removeMoney(player, space.TaxAmount)
	case board.KindGoToJail:
		m.sendToJail(player)
	case board.KindChance:
		m.applyCard(player, m.decks.DrawChance())
	case board.KindCommunityChest:
		m.applyCard(player, m.decks.DrawCommunityChest())
	}
}

func (m *Match) chargeRent(player, pos int) {
	space := board.Spaces[pos]
	owner := m.Properties[pos].Owner

	switch space.Kind {
	case board.KindStreet:
		rent := space.Rent[m.Properties[pos].Upgrades]
		if m.isMonopolist(owner, space.Group) && m.Properties[pos].Upgrades == 0 {
			rent *= 2
		}
		m.payPlayer(player, owner, rent)
	case board.KindRailroad:
		mult := 1
		for _, i := range board.GroupMembers(board.GroupRailroad) {
			if m.Properties[i].Owner == owner && !m.Properties[i].Mortgaged {
				mult *= 2
			}
		}
		m.payPlayer(player, owner, 25*mult/2)
	case board.KindUtility:
		owned := 0
		for _, i := range board.GroupMembers(board.GroupUtility) {
			if m.Properties[i].Owner == owner && !m.Properties[i].Mortgaged {
				owned++
			}
		}
		factor := 4
		if owned == 2 {
			factor = 10
		}
		m.payPlayer(player, owner, factor*(m.LastRoll[0]+m.LastRoll[1]))
	}
}

// isMonopolist reports whether a player owns every street in a color group.
// Railroads and utilities never count as monopolies.
func (m *Match) isMonopolist(player int, g board.Group) bool {
	if g == board.GroupRailroad || g == board.GroupUtility || g == board.GroupNone {
		return false
	}
	for _, i := range board.GroupMembers(g) {
		if m.Properties[i].Owner != player {
			return false
		}
	}
	return true
}

func (m *Match) applyCard(player int, e CardEffect) {
	m.Message = e.Message
	p := &m.Players[player]

	if e.MoneyChange > 0 {
		p.Money += e.MoneyChange
	} else if e.MoneyChange < 0 {
		m.removeMoney(player, -e.MoneyChange)
	}

	switch {
	case e.GoBack > 0:
		p.Position = (p.Position - e.GoBack + board.Size) % board.Size
		m.resolveLanding(player)
	case e.NewPosition >= 0:
		oldPos := p.Position
		p.Position = e.NewPosition
		if e.NewPosition < oldPos && e.NewPosition != 0 {
			p.Money += GoBonus
		}
		m.resolveLanding(player)
	case e.AdvanceToNearest != board.GroupNone:
		for {
			p.Position = (p.Position + 1) % board.Size
			if p.Position == 0 {
				p.Money += GoBonus
			}
			if board.Spaces[p.Position].Group == e.AdvanceToNearest {
				break
			}
		}
		m.resolveLanding(player)
	}

	if e.GoToJail {
		m.sendToJail(player)
	}
	if e.GetOutOfJailFree {
		p.JailCards++
	}
	if e.PropertyRepairs {
		total := 0
		for i := range m.Properties {
			if m.Properties[i].Owner != player {
				continue
			}
			if m.Properties[i].Upgrades == MaxUpgrades {
				total += e.HotelRepairCost
			} else if m.Properties[i].Upgrades > 0 {
				total += m.Properties[i].Upgrades * e.HouseRepairCost
			}
		}
		if total > 0 {
			m.removeMoney(player, total)
		}
	}
	if e.CollectFromPlayers > 0 {
		m.payPlayer(1-player, player, e.CollectFromPlayers)
	}
	if e.PayToPlayers > 0 {
		m.payPlayer(player, 1-player, e.PayToPlayers)
	}
}

// Buy purchases the property under the current player.
func (m *Match) Buy(player int) error {
	if err := m.checkTurn(player, PhaseAwaitingBuy); err != nil {
		return err
	}
	pos := m.Players[player].Position
	price := board.Spaces[pos].Price
	if m.Properties[pos].Owner == -1 && m.Players[player].Money >= price {
		m.Players[player].Money -= price
		m.Properties[pos].Owner = player
		m.Message = fmt.Sprintf("Bought %s for $%d", board.Spaces[pos].Name, price)
	}
	m.endBuyPhase()
	return nil
}

// Skip declines the purchase.
func (m *Match) Skip(player int) error {
	if err := m.checkTurn(player, PhaseAwaitingBuy); err != nil {
		return err
	}
	m.Message = "Declined to buy"
	m.endBuyPhase()
	return nil
}

func (m *Match) endBuyPhase() {
	m.Phase = PhaseAwaitingRoll
	if m.LastRoll[0] != m.LastRoll[1] || m.JustLeftJail {
		m.nextPlayer()
	}
}

// groupBuildable checks ownership plus even-build preconditions shared by
// upgrades and downgrades: the whole group belongs to the player and no
// member is mortgaged.
func (m *Match) groupBuildable(player, pos int) bool {
	g := board.Spaces[pos].Group
	if !m.isMonopolist(player, g) {
		return false
	}
	for _, i := range board.GroupMembers(g) {
		if m.Properties[i].Mortgaged {
			return false
		}
	}
	return true
}

func (m *Match) groupLevels(pos int) (lowest, highest int) {
	lowest, highest = MaxUpgrades, 0
	for _, i := range board.GroupMembers(board.Spaces[pos].Group) {
		if u := m.Properties[i].Upgrades; u < lowest {
			lowest = u
		}
		if u := m.Properties[i].Upgrades; u > highest {
			highest = u
		}
	}
	return lowest, highest
}

// Upgrade builds one improvement level. Allowed only on a fully owned,
// unmortgaged street group, and only at the group's lowest level.
func (m *Match) Upgrade(player, propID int) error {
	if err := m.checkManage(player, propID); err != nil {
		return err
	}
	prop := &m.Properties[propID]
	space := board.Spaces[propID]
	if space.Kind != board.KindStreet || prop.Owner != player || prop.Mortgaged || prop.Upgrades >= MaxUpgrades {
		return fmt.Errorf("%w: can't build there", ErrInvalidMove)
	}
	if !m.groupBuildable(player, propID) {
		return fmt.Errorf("%w: not allowed to build", ErrInvalidMove)
	}
	if lowest, _ := m.groupLevels(propID); prop.Upgrades != lowest {
		return fmt.Errorf("%w: build evenly across the group", ErrInvalidMove)
	}
	if m.Players[player].Money < space.UpgradeCost {
		return fmt.Errorf("%w: not enough money", ErrInvalidMove)
	}
	prop.Upgrades++
	m.removeMoney(player, space.UpgradeCost)
	m.Message = fmt.Sprintf("Built on %s for $%d", space.Name, space.UpgradeCost)
	return nil
}

// Downgrade sells one improvement level for half its cost. Allowed only at
// the group's highest level.
func (m *Match) Downgrade(player, propID int) error {
	if err := m.checkManage(player, propID); err != nil {
		return err
	}
	prop := &m.Properties[propID]
	space := board.Spaces[propID]
	if space.Kind != board.KindStreet || prop.Owner != player || prop.Mortgaged || prop.Upgrades == 0 {
		return fmt.Errorf("%w: can't sell there", ErrInvalidMove)
	}
	if !m.groupBuildable(player, propID) {
		return fmt.Errorf("%w: can't sell there", ErrInvalidMove)
	}
	if _, highest := m.groupLevels(propID); prop.Upgrades != highest {
		return fmt.Errorf("%w: sell evenly across the group", ErrInvalidMove)
	}
	prop.Upgrades--
	m.Players[player].Money += space.UpgradeCost / 2
	m.Message = fmt.Sprintf("Sold house on %s for $%d", space.Name, space.UpgradeCost/2)
	m.settleDebt()
	return nil
}

// Mortgage toggles mortgage status. Mortgaging requires zero improvements
// across the whole color group; unmortgaging costs principal plus 10%.
func (m *Match) Mortgage(player, propID int) error {
	if err := m.checkManage(player, propID); err != nil {
		return err
	}
	prop := &m.Properties[propID]
	space := board.Spaces[propID]
	if !board.Purchasable(propID) || prop.Owner != player {
		return fmt.Errorf("%w: can't mortgage that", ErrInvalidMove)
	}
	if !prop.Mortgaged {
		if prop.Upgrades > 0 {
			return fmt.Errorf("%w: can't mortgage with houses", ErrInvalidMove)
		}
		for _, i := range board.GroupMembers(space.Group) {
			if m.Properties[i].Upgrades > 0 {
				return fmt.Errorf("%w: destroy other houses first", ErrInvalidMove)
			}
		}
		prop.Mortgaged = true
		m.Players[player].Money += board.MortgageValue(propID)
		m.Message = fmt.Sprintf("Mortgaged %s for $%d", space.Name, board.MortgageValue(propID))
		m.settleDebt()
		return nil
	}
	cost := board.UnmortgageCost(propID)
	if m.Players[player].Money < cost {
		return fmt.Errorf("%w: not enough money", ErrInvalidMove)
	}
	prop.Mortgaged = false
	m.removeMoney(player, cost)
	m.Message = fmt.Sprintf("Unmortgaged %s for $%d", space.Name, cost)
	return nil
}

// checkManage gates the property-management actions. They are allowed on
// the owner's turn in the roll phase, and for the debtor while in debt.
func (m *Match) checkManage(player, propID int) error {
	if propID < 0 || propID >= board.Size {
		return fmt.Errorf("%w: bad property id %d", ErrInvalidMove, propID)
	}
	if m.Phase == PhaseEnded {
		return fmt.Errorf("%w: game over", ErrInvalidMove)
	}
	if m.Paused {
		return fmt.Errorf("%w: game is paused", ErrInvalidMove)
	}
	if m.Phase == PhaseInDebt {
		if m.Debtor != player {
			return ErrNotYourTurn
		}
		return nil
	}
	if m.Current != player {
		return ErrNotYourTurn
	}
	return nil
}

// PayJailFine buys out of jail before rolling.
func (m *Match) PayJailFine(player int) error {
	if err := m.checkTurn(player, PhaseAwaitingRoll); err != nil {
		return err
	}
	p := &m.Players[player]
	if !p.Jailed {
		return fmt.Errorf("%w: not in jail", ErrInvalidMove)
	}
	if p.Money < JailFine {
		return fmt.Errorf("%w: not enough money for fine", ErrInvalidMove)
	}
	m.removeMoney(player, JailFine)
	p.Jailed = false
	p.TurnsInJail = 0
	m.Message = "Paid fine! Out of jail"
	return nil
}

// UseJailCard spends a held get-out-of-jail-free card.
func (m *Match) UseJailCard(player int) error {
	if err := m.checkTurn(player, PhaseAwaitingRoll); err != nil {
		return err
	}
	p := &m.Players[player]
	if !p.Jailed || p.JailCards == 0 {
		return fmt.Errorf("%w: no jail card to use", ErrInvalidMove)
	}
	p.JailCards--
	p.Jailed = false
	p.TurnsInJail = 0
	m.Message = "Used Get Out of Jail Free card!"
	return nil
}

// Bankrupt ends the match in the opponent's favor.
func (m *Match) Bankrupt(player int) error {
	return m.concede(player, ReasonBankruptcy)
}

// Surrender ends the match in the opponent's favor.
func (m *Match) Surrender(player int) error {
	return m.concede(player, ReasonSurrender)
}

// Forfeit resolves a match whose player dropped; the remaining player wins.
func (m *Match) Forfeit(player int) error {
	return m.concede(player, ReasonDisconnect)
}

func (m *Match) concede(player int, reason string) error {
	if m.Phase == PhaseEnded {
		return fmt.Errorf("%w: game over", ErrInvalidMove)
	}
	m.Phase = PhaseEnded
	m.Paused = false
	m.Winner = 1 - player
	m.EndReason = reason
	m.Message = fmt.Sprintf("%s lost! %s wins!", m.Players[player].Username, m.Players[1-player].Username)
	return nil
}

// Pause suspends the match, remembering who paused and the phase to restore.
func (m *Match) Pause(player int) error {
	if m.Phase == PhaseEnded || m.Paused {
		return fmt.Errorf("%w: can't pause now", ErrInvalidMove)
	}
	m.Paused = true
	m.PausedBy = player
	m.PhaseBeforePause = m.Phase
	m.Phase = PhasePaused
	m.Message = fmt.Sprintf("Game paused by %s", m.Players[player].Username)
	return nil
}

// Resume restores the suspended phase. Only the pausing player may resume.
func (m *Match) Resume(player int) error {
	if !m.Paused {
		return fmt.Errorf("%w: game is not paused", ErrInvalidMove)
	}
	if m.PausedBy != player {
		return fmt.Errorf("%w: only the pausing player may resume", ErrInvalidMove)
	}
	m.Paused = false
	m.PausedBy = -1
	m.Phase = m.PhaseBeforePause
	m.Message = "Game resumed"
	return nil
}

// Snapshot serializes the full board state for broadcast.
func (m *Match) Snapshot() comm.GameSnapshot {
	snap := comm.GameSnapshot{
		MatchId:       m.ID,
		CurrentPlayer: m.Current,
		State:         m.Phase.String(),
		MoveCount:     m.MoveCount,
		Paused:        m.Paused,
		PausedBy:      m.PausedBy,
		Dice:          [2]int{m.LastRoll[0], m.LastRoll[1]},
		Message:       m.Message,
		Message2:      m.Message2,
		Players:       make([]comm.PlayerSnapshot, 2),
		Properties:    make([]comm.PropertySnapshot, board.Size),
	}
	for i, p := range m.Players {
		snap.Players[i] = comm.PlayerSnapshot{
			UserId:      p.UserID,
			Username:    p.Username,
			Money:       p.Money,
			Position:    p.Position,
			Jailed:      p.Jailed,
			TurnsInJail: p.TurnsInJail,
		}
	}
	for i, pr := range m.Properties {
		snap.Properties[i] = comm.PropertySnapshot{
			Owner:     pr.Owner,
			Upgrades:  pr.Upgrades,
			Mortgaged: pr.Mortgaged,
		}
	}
	return snap
}
