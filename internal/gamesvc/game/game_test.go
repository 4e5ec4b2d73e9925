package game

import (
	"errors"
	"testing"

	"monopoly-service/internal/gamesvc/board"
)

func scripted(rolls ...[2]int) Roller {
	i := 0
	return func() (int, int) {
		r := rolls[i%len(rolls)]
		i++
		return r[0], r[1]
	}
}

func newTestMatch(rolls ...[2]int) *Match {
	m := NewMatch(1, 100, "red", 200, "blue")
	if len(rolls) > 0 {
		m.SetRoller(scripted(rolls...))
	}
	return m
}

func TestNotYourTurn(t *testing.T) {
	m := newTestMatch([2]int{1, 2})
	err := m.RollDice(1)
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("err = %v, want ErrNotYourTurn", err)
	}
	if m.MoveCount != 0 {
		t.Errorf("move count mutated on rejected action: %d", m.MoveCount)
	}
}

func TestDoublesGrantExtraRoll(t *testing.T) {
	m := newTestMatch([2]int{3, 3})
	if err := m.RollDice(0); err != nil {
		t.Fatal(err)
	}
	if m.Players[0].Position != 6 {
		t.Errorf("position = %d, want 6", m.Players[0].Position)
	}
	if m.Players[0].ConsecutiveDoubles != 1 {
		t.Errorf("doubles counter = %d, want 1", m.Players[0].ConsecutiveDoubles)
	}
	// Oriental Avenue is unowned and affordable, so the roller decides
	// on the purchase before the extra roll.
	if m.Phase != PhaseAwaitingBuy {
		t.Fatalf("phase = %s, want awaiting_buy", m.Phase)
	}
	if err := m.Skip(0); err != nil {
		t.Fatal(err)
	}
	if m.Current != 0 {
		t.Errorf("current = %d, doubles should keep the turn", m.Current)
	}
	if m.Phase != PhaseAwaitingRoll {
		t.Errorf("phase = %s, want awaiting_roll", m.Phase)
	}
}

func TestThreeDoublesJails(t *testing.T) {
	m := newTestMatch([2]int{2, 2}, [2]int{3, 3}, [2]int{4, 4})
	if err := m.RollDice(0); err != nil { // lands on Income Tax
		t.Fatal(err)
	}
	if err := m.RollDice(0); err != nil { // lands on Jail, just visiting
		t.Fatal(err)
	}
	posBefore := m.Players[0].Position
	if err := m.RollDice(0); err != nil { // third doubles
		t.Fatal(err)
	}
	if !m.Players[0].Jailed {
		t.Fatal("player not jailed after three consecutive doubles")
	}
	if m.Players[0].Position != board.PosJail || posBefore != board.PosJail {
		t.Errorf("net movement on third doubles: %d -> %d", posBefore, m.Players[0].Position)
	}
	if m.Current != 1 {
		t.Errorf("turn did not pass after jailing, current = %d", m.Current)
	}
}

func TestPassStartBonusOnWrap(t *testing.T) {
	m := newTestMatch([2]int{6, 6})
	m.Players[0].Position = 38
	if err := m.RollDice(0); err != nil {
		t.Fatal(err)
	}
	if m.Players[0].Position != 10 {
		t.Errorf("position = %d, want 10", m.Players[0].Position)
	}
	if m.Players[0].Money != StartingMoney+GoBonus {
		t.Errorf("money = %d, want %d (wrap bonus)", m.Players[0].Money, StartingMoney+GoBonus)
	}
	if m.Current != 0 {
		t.Errorf("doubles from open play should keep the turn")
	}
}

func TestLandingExactlyOnStart(t *testing.T) {
	m := newTestMatch([2]int{2, 3})
	m.Players[0].Position = 35
	if err := m.RollDice(0); err != nil {
		t.Fatal(err)
	}
	if m.Players[0].Position != 0 {
		t.Fatalf("position = %d, want 0", m.Players[0].Position)
	}
	// Wrap bonus only, no extra credit for standing on the start space.
	if m.Players[0].Money != StartingMoney+GoBonus {
		t.Errorf("money = %d, want %d", m.Players[0].Money, StartingMoney+GoBonus)
	}
}

func TestJailRollNoDoublesPassesTurn(t *testing.T) {
	m := newTestMatch([2]int{2, 3})
	m.Players[0].Jailed = true
	m.Players[0].Position = board.PosJail
	if err := m.RollDice(0); err != nil {
		t.Fatal(err)
	}
	if !m.Players[0].Jailed || m.Players[0].TurnsInJail != 1 {
		t.Errorf("jailed = %v turns = %d, want still jailed with 1 turn", m.Players[0].Jailed, m.Players[0].TurnsInJail)
	}
	if m.Players[0].Position != board.PosJail {
		t.Errorf("jailed player moved to %d", m.Players[0].Position)
	}
	if m.Current != 1 {
		t.Errorf("turn did not pass, current = %d", m.Current)
	}
}

func TestJailExitDoublesNoExtraRoll(t *testing.T) {
	m := newTestMatch([2]int{3, 3})
	m.Players[0].Jailed = true
	m.Players[0].Position = board.PosJail
	if err := m.RollDice(0); err != nil {
		t.Fatal(err)
	}
	if m.Players[0].Jailed {
		t.Fatal("doubles should release from jail")
	}
	if m.Players[0].Position != 16 {
		t.Errorf("position = %d, want 16", m.Players[0].Position)
	}
	// St. James Place is purchasable; declining must end the turn even
	// though the roll was doubles.
	if err := m.Skip(0); err != nil {
		t.Fatal(err)
	}
	if m.Current != 1 {
		t.Errorf("jail-exit doubles granted an extra roll")
	}
}

func TestJailThirdAttemptPaysFine(t *testing.T) {
	m := newTestMatch([2]int{2, 3})
	m.Players[0].Jailed = true
	m.Players[0].Position = board.PosJail
	m.Players[0].TurnsInJail = 2
	if err := m.RollDice(0); err != nil {
		t.Fatal(err)
	}
	if m.Players[0].Jailed {
		t.Fatal("third attempt should release after paying the fine")
	}
	if m.Players[0].Money != StartingMoney-JailFine {
		t.Errorf("money = %d, want %d", m.Players[0].Money, StartingMoney-JailFine)
	}
	if m.Players[0].Position != 15 {
		t.Errorf("position = %d, want 15", m.Players[0].Position)
	}
}

func TestPayJailFine(t *testing.T) {
	m := newTestMatch()
	m.Players[0].Jailed = true
	m.Players[0].Position = board.PosJail
	m.Players[0].TurnsInJail = 1
	if err := m.PayJailFine(0); err != nil {
		t.Fatal(err)
	}
	if m.Players[0].Jailed || m.Players[0].TurnsInJail != 0 {
		t.Errorf("jailed = %v turns = %d after paying fine", m.Players[0].Jailed, m.Players[0].TurnsInJail)
	}
	if m.Players[0].Money != StartingMoney-JailFine {
		t.Errorf("money = %d, fine not deducted exactly once", m.Players[0].Money)
	}
	if err := m.PayJailFine(0); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("paying fine while free: err = %v, want ErrInvalidMove", err)
	}
}

func TestBuyProperty(t *testing.T) {
	m := newTestMatch([2]int{1, 2})
	if err := m.RollDice(0); err != nil { // Baltic Avenue
		t.Fatal(err)
	}
	if m.Phase != PhaseAwaitingBuy {
		t.Fatalf("phase = %s, want awaiting_buy", m.Phase)
	}
	if err := m.Buy(0); err != nil {
		t.Fatal(err)
	}
	if m.Properties[3].Owner != 0 {
		t.Errorf("owner = %d, want 0", m.Properties[3].Owner)
	}
	if m.Players[0].Money != StartingMoney-60 {
		t.Errorf("money = %d, want %d", m.Players[0].Money, StartingMoney-60)
	}
	if m.Current != 1 {
		t.Errorf("turn did not pass after buying on a normal roll")
	}
}

func TestMonopolyDoublesBaseRent(t *testing.T) {
	m := newTestMatch([2]int{1, 2})
	m.Properties[1].Owner = 1
	m.Properties[3].Owner = 1
	if err := m.RollDice(0); err != nil { // lands on Baltic
		t.Fatal(err)
	}
	wantRent := 8 // base 4, doubled for the full brown group
	if m.Players[0].Money != StartingMoney-wantRent {
		t.Errorf("payer money = %d, want %d", m.Players[0].Money, StartingMoney-wantRent)
	}
	if m.Players[1].Money != StartingMoney+wantRent {
		t.Errorf("owner money = %d, want %d", m.Players[1].Money, StartingMoney+wantRent)
	}
}

func TestRailroadRentScalesByCount(t *testing.T) {
	m := newTestMatch([2]int{2, 3})
	m.Properties[5].Owner = 1
	m.Properties[15].Owner = 1
	if err := m.RollDice(0); err != nil { // Reading Railroad
		t.Fatal(err)
	}
	wantRent := 50 // 25 * 2^2 / 2 with two railroads owned
	if m.Players[0].Money != StartingMoney-wantRent {
		t.Errorf("payer money = %d, want %d", m.Players[0].Money, StartingMoney-wantRent)
	}
}

func TestUtilityRentUsesDiceTotal(t *testing.T) {
	m := newTestMatch([2]int{3, 4})
	m.Players[0].Position = 5
	m.Properties[12].Owner = 1
	m.Properties[28].Owner = 1
	if err := m.RollDice(0); err != nil { // Electric Company
		t.Fatal(err)
	}
	wantRent := 70 // both utilities owned: 10 x dice total
	if m.Players[0].Money != StartingMoney-wantRent {
		t.Errorf("payer money = %d, want %d", m.Players[0].Money, StartingMoney-wantRent)
	}
}

func TestMortgagedPropertyCollectsNoRent(t *testing.T) {
	m := newTestMatch([2]int{1, 2})
	m.Properties[3].Owner = 1
	m.Properties[3].Mortgaged = true
	if err := m.RollDice(0); err != nil {
		t.Fatal(err)
	}
	if m.Players[0].Money != StartingMoney {
		t.Errorf("rent collected on mortgaged property: money = %d", m.Players[0].Money)
	}
}

func TestEvenBuildEnforced(t *testing.T) {
	m := newTestMatch()
	m.Properties[1].Owner = 0
	m.Properties[3].Owner = 0

	if err := m.Upgrade(0, 1); err != nil {
		t.Fatal(err)
	}
	if err := m.Upgrade(0, 1); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("uneven build allowed: err = %v", err)
	}
	if err := m.Upgrade(0, 3); err != nil {
		t.Fatal(err)
	}
	if err := m.Upgrade(0, 1); err != nil {
		t.Fatal(err)
	}

	// Selling must start from the highest level.
	if err := m.Downgrade(0, 3); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("uneven sell allowed: err = %v", err)
	}
	if err := m.Downgrade(0, 1); err != nil {
		t.Fatal(err)
	}
}

func TestBuildRequiresMonopoly(t *testing.T) {
	m := newTestMatch()
	m.Properties[6].Owner = 0
	if err := m.Upgrade(0, 6); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("build without monopoly allowed: err = %v", err)
	}
}

func TestMortgageRules(t *testing.T) {
	m := newTestMatch()
	m.Properties[1].Owner = 0
	m.Properties[3].Owner = 0
	m.Properties[1].Upgrades = 1

	if err := m.Mortgage(0, 3); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("mortgage with group improvements allowed: err = %v", err)
	}
	if m.Properties[3].Mortgaged {
		t.Fatal("state mutated on rejected mortgage")
	}

	m.Properties[1].Upgrades = 0
	if err := m.Mortgage(0, 3); err != nil {
		t.Fatal(err)
	}
	if !m.Properties[3].Mortgaged || m.Players[0].Money != StartingMoney+30 {
		t.Errorf("mortgage payout wrong: money = %d", m.Players[0].Money)
	}

	// Unmortgage charges principal plus 10%.
	if err := m.Mortgage(0, 3); err != nil {
		t.Fatal(err)
	}
	if m.Properties[3].Mortgaged || m.Players[0].Money != StartingMoney+30-33 {
		t.Errorf("unmortgage cost wrong: money = %d", m.Players[0].Money)
	}
}

func TestDebtRestrictsActions(t *testing.T) {
	m := newTestMatch([2]int{2, 4})
	m.Players[0].Money = 10
	m.Players[0].Position = 33
	m.Properties[39].Owner = 1 // Boardwalk, base rent 50
	m.Properties[5].Owner = 0  // railroad to mortgage out of debt

	if err := m.RollDice(0); err != nil {
		t.Fatal(err)
	}
	if m.Phase != PhaseInDebt || m.Debtor != 0 {
		t.Fatalf("phase = %s debtor = %d, want in_debt for player 0", m.Phase, m.Debtor)
	}
	if m.Players[0].Money != -40 {
		t.Fatalf("money = %d, want -40", m.Players[0].Money)
	}

	if err := m.RollDice(0); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("roll in debt: err = %v, want ErrInvalidMove", err)
	}
	if err := m.Buy(0); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("buy in debt: err = %v, want ErrInvalidMove", err)
	}

	// Mortgaging the railroad clears the debt and ends the turn.
	if err := m.Mortgage(0, 5); err != nil {
		t.Fatal(err)
	}
	if m.Players[0].Money != 60 {
		t.Errorf("money = %d, want 60", m.Players[0].Money)
	}
	if m.Phase != PhaseAwaitingRoll || m.Current != 1 {
		t.Errorf("phase = %s current = %d after clearing debt, want awaiting_roll for player 1", m.Phase, m.Current)
	}
}

func TestPauseResume(t *testing.T) {
	m := newTestMatch([2]int{1, 2})
	if err := m.RollDice(0); err != nil {
		t.Fatal(err)
	}
	if err := m.Pause(1); err != nil {
		t.Fatal(err)
	}
	if m.Phase != PhasePaused {
		t.Fatalf("phase = %s, want paused", m.Phase)
	}
	if err := m.Buy(0); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("action while paused: err = %v, want ErrInvalidMove", err)
	}
	if err := m.Resume(0); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("resume by non-pausing player: err = %v, want ErrInvalidMove", err)
	}
	if err := m.Resume(1); err != nil {
		t.Fatal(err)
	}
	if m.Phase != PhaseAwaitingBuy {
		t.Errorf("phase = %s after resume, want the suspended awaiting_buy", m.Phase)
	}
}

func TestSurrenderEndsMatch(t *testing.T) {
	m := newTestMatch()
	if err := m.Surrender(1); err != nil {
		t.Fatal(err)
	}
	if m.Phase != PhaseEnded || m.Winner != 0 || m.EndReason != ReasonSurrender {
		t.Errorf("phase = %s winner = %d reason = %q", m.Phase, m.Winner, m.EndReason)
	}
	if err := m.Surrender(0); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("surrender after end: err = %v", err)
	}
}

func TestChanceGoBackThree(t *testing.T) {
	m := newTestMatch([2]int{1, 2})
	m.SetDecks(NewOrderedDecks([]int{8}, []int{15}))
	m.Players[0].Position = 4
	if err := m.RollDice(0); err != nil { // 4+3=7 Chance, card sends back 3
		t.Fatal(err)
	}
	if m.Players[0].Position != 4 {
		t.Fatalf("position = %d, want 4 after go-back-3", m.Players[0].Position)
	}
	// Re-landing on Income Tax charges it.
	if m.Players[0].Money != StartingMoney-board.IncomeTaxAmount {
		t.Errorf("money = %d, want %d", m.Players[0].Money, StartingMoney-board.IncomeTaxAmount)
	}
}

func TestChanceJailCard(t *testing.T) {
	m := newTestMatch([2]int{3, 4})
	m.SetDecks(NewOrderedDecks([]int{7}, []int{15}))
	if err := m.RollDice(0); err != nil { // lands on Chance at 7
		t.Fatal(err)
	}
	if m.Players[0].JailCards != 1 {
		t.Fatalf("jail cards = %d, want 1", m.Players[0].JailCards)
	}

	m.Players[0].Jailed = true
	m.Players[0].Position = board.PosJail
	m.Current = 0
	m.Phase = PhaseAwaitingRoll
	if err := m.UseJailCard(0); err != nil {
		t.Fatal(err)
	}
	if m.Players[0].Jailed || m.Players[0].JailCards != 0 {
		t.Errorf("jailed = %v cards = %d after using card", m.Players[0].Jailed, m.Players[0].JailCards)
	}
}

func TestAdvanceToNearestRailroadCreditsWrap(t *testing.T) {
	m := newTestMatch([2]int{2, 2})
	// Doubles would grant an extra roll, fine for this test.
	m.SetDecks(NewOrderedDecks([]int{4}, []int{15}))
	m.Players[0].Position = 32
	if err := m.RollDice(0); err != nil { // 32+4=36 Chance, advance to nearest railroad
		t.Fatal(err)
	}
	if m.Players[0].Position != 5 {
		t.Fatalf("position = %d, want 5 (Reading Railroad)", m.Players[0].Position)
	}
	if m.Players[0].Money < StartingMoney+GoBonus {
		t.Errorf("money = %d, wrap during card advance not credited", m.Players[0].Money)
	}
}

func TestPoolCapacityAndOwnership(t *testing.T) {
	p := NewPool(2)

	m1, err := p.Create(1, "a", 2, "b")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Create(3, "c", 4, "d"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Create(5, "e", 6, "f"); !errors.Is(err, ErrPoolFull) {
		t.Fatalf("err = %v, want ErrPoolFull", err)
	}

	if _, err := p.Create(1, "a", 7, "g"); err == nil {
		t.Fatal("player seated in two matches")
	}

	if got := p.ByUser(2); got != m1 {
		t.Errorf("ByUser(2) = %v, want match %d", got, m1.ID)
	}

	p.Remove(m1.ID)
	if p.ByUser(1) != nil {
		t.Error("user index not cleared on remove")
	}
	if _, err := p.Create(5, "e", 6, "f"); err != nil {
		t.Errorf("slot not freed: %v", err)
	}
}
