package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"monopoly-service/internal/comm"
	"monopoly-service/internal/gamesvc/game"
	"monopoly-service/internal/gamesvc/session"
	"monopoly-service/internal/protocol"
)

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (s *Server) push(c *conn, kind protocol.Kind, senderID, targetID uint32, v interface{}) {
	var payload []byte
	if v != nil {
		var err error
		payload, err = json.Marshal(v)
		if err != nil {
			log.Errorf("marshal %s payload: %v", kind, err)
			return
		}
	}

	buf, err := protocol.Encode(kind, senderID, targetID, payload)
	if err != nil {
		log.Errorf("encode %s frame: %v", kind, err)
		return
	}

	select {
	case c.outbox <- buf:
	default:
		log.Warnf("outbox full, dropping connection %s", c.id)
		c.close()
	}
}

func (s *Server) sendToUser(userID uint32, kind protocol.Kind, senderID uint32, v interface{}) {
	sess := s.registry.ByUser(userID)
	if sess == nil {
		return
	}
	c, ok := s.conns[sess.ConnID]
	if !ok {
		return
	}
	s.push(c, kind, senderID, userID, v)
}

func (s *Server) pushError(c *conn, targetID uint32, msg string) {
	s.push(c, protocol.KindError, 0, targetID, comm.ErrorMessage{Message: msg})
}

func (s *Server) handleFrame(c *conn, f protocol.Frame) {
	sess := s.registry.ByConn(c.id)
	if sess == nil {
		return
	}

	switch f.Kind {
	case protocol.KindRegister:
		s.handleRegister(c, f)
		return
	case protocol.KindLogin:
		s.handleLogin(c, sess, f)
		return
	case protocol.KindHeartbeat:
		s.push(c, protocol.KindHeartbeatAck, 0, sess.UserID, nil)
		return
	}

	if sess.UserID == 0 {
		s.pushError(c, 0, "authentication required")
		return
	}

	switch f.Kind {
	case protocol.KindLogout:
		s.handleLogout(c, sess)
	case protocol.KindGetOnlinePlayers:
		s.handleOnlinePlayers(c, sess)
	case protocol.KindSearchMatch:
		s.handleSearch(c, sess)
	case protocol.KindCancelSearch:
		s.handleCancelSearch(c, sess)
	case protocol.KindSendChallenge:
		s.handleSendChallenge(c, sess, f)
	case protocol.KindAcceptChallenge:
		s.handleChallengeAnswer(c, sess, f, true)
	case protocol.KindDeclineChallenge:
		s.handleChallengeAnswer(c, sess, f, false)
	case protocol.KindRollDice, protocol.KindBuyProperty, protocol.KindSkipProperty,
		protocol.KindUpgradeProperty, protocol.KindDowngradeProperty,
		protocol.KindMortgageProperty, protocol.KindPayJailFine,
		protocol.KindDeclareBankrupt, protocol.KindSurrender,
		protocol.KindPauseGame, protocol.KindResumeGame:
		s.handleGameAction(c, sess, f)
	case protocol.KindRematchRequest:
		s.handleRematchRequest(c, sess)
	case protocol.KindRematchResponse:
		s.handleRematchResponse(c, sess, f)
	case protocol.KindGetHistory:
		s.handleHistory(c, sess)
	default:
		log.Warnf("unknown message kind %d from %s", uint32(f.Kind), c.id)
		s.pushError(c, sess.UserID, "unsupported message kind")
	}
}

func (s *Server) handleRegister(c *conn, f protocol.Frame) {
	var req comm.RegisterRequest
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		s.pushError(c, 0, "bad register payload")
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	u, err := s.auth.Register(ctx, req.Username, req.Password)
	if err != nil {
		log.Infof("registration rejected for %q: %v", req.Username, err)
		s.push(c, protocol.KindRegisterResponse, 0, 0,
			comm.RegisterResponse{Ok: false, Message: err.Error()})
		return
	}

	log.Infof("registered user %d %q", u.UserId, u.Username)
	s.push(c, protocol.KindRegisterResponse, 0, u.UserId,
		comm.RegisterResponse{Ok: true, UserId: u.UserId})
}

func (s *Server) handleLogin(c *conn, sess *session.Session, f protocol.Frame) {
	var req comm.LoginRequest
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		s.pushError(c, 0, "bad login payload")
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	u, token, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		log.Infof("login failed for %q", req.Username)
		s.push(c, protocol.KindLoginResponse, 0, 0,
			comm.LoginResponse{Ok: false, Message: "invalid credentials"})
		return
	}

	_, prior := s.registry.Authenticate(c.id, u.UserId, u.Username, u.Rating, u.GamesPlayed)
	if prior != nil && prior.ConnID != c.id {
		if pc, ok := s.conns[prior.ConnID]; ok {
			s.pushError(pc, u.UserId, "signed in from another connection")
			pc.close()
			delete(s.conns, prior.ConnID)
		}
		s.registry.Remove(prior.ConnID)
	}

	log.Infof("user %d %q logged in on %s", u.UserId, u.Username, c.id)
	s.push(c, protocol.KindLoginResponse, 0, u.UserId, comm.LoginResponse{
		Ok:       true,
		UserId:   u.UserId,
		Username: u.Username,
		Rating:   u.Rating,
		Token:    token,
	})

	// a relogin during a live match resumes it
	if m := s.pool.ByUser(u.UserId); m != nil {
		s.registry.SetStatus(c.id, session.StatusInGame, m.ID)
		s.push(c, protocol.KindGameState, 0, u.UserId, m.Snapshot())
	}

	s.broker.PublishPlayerOnline(u.UserId, u.Username, true)
}

func (s *Server) handleLogout(c *conn, sess *session.Session) {
	ctx, cancel := opCtx()
	defer cancel()
	if err := s.auth.Logout(ctx, sess.UserID); err != nil {
		log.Errorf("logout user %d: %v", sess.UserID, err)
	}
	s.push(c, protocol.KindSuccess, 0, sess.UserID, comm.SuccessMessage{Message: "logged out"})
	s.dropSession(c)
}

func (s *Server) handleOnlinePlayers(c *conn, sess *session.Session) {
	online := s.registry.Online(sess.UserID)
	list := comm.OnlinePlayersList{Players: make([]comm.OnlinePlayer, 0, len(online))}
	for _, o := range online {
		list.Players = append(list.Players, comm.OnlinePlayer{
			UserId:   o.UserID,
			Username: o.Username,
			Rating:   o.Rating,
			Status:   o.Status.String(),
		})
	}
	s.push(c, protocol.KindOnlinePlayersList, 0, sess.UserID, list)
}

func (s *Server) handleSearch(c *conn, sess *session.Session) {
	if sess.Status == session.StatusInGame {
		s.pushError(c, sess.UserID, "already in a match")
		return
	}
	s.cancelRematch(sess.UserID)
	s.registry.SetStatus(c.id, session.StatusSearching, 0)
	s.push(c, protocol.KindSuccess, 0, sess.UserID, comm.SuccessMessage{Message: "searching"})
}

func (s *Server) handleCancelSearch(c *conn, sess *session.Session) {
	if sess.Status != session.StatusSearching {
		s.pushError(c, sess.UserID, "not searching")
		return
	}
	s.registry.SetStatus(c.id, session.StatusIdle, 0)
	s.push(c, protocol.KindSuccess, 0, sess.UserID, comm.SuccessMessage{Message: "search cancelled"})
}

func (s *Server) handleSendChallenge(c *conn, sess *session.Session, f protocol.Frame) {
	var req comm.ChallengeTarget
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		s.pushError(c, sess.UserID, "bad challenge payload")
		return
	}
	if req.TargetId == sess.UserID {
		s.pushError(c, sess.UserID, "cannot challenge yourself")
		return
	}

	target := s.registry.ByUser(req.TargetId)
	if target == nil {
		s.pushError(c, sess.UserID, "player not online")
		return
	}
	if sess.Status == session.StatusInGame || target.Status == session.StatusInGame {
		s.pushError(c, sess.UserID, "player unavailable")
		return
	}
	if s.engine.PendingFor(sess.UserID, req.TargetId) {
		s.pushError(c, sess.UserID, "challenge already pending")
		return
	}

	ch := s.engine.CreateChallenge(sess.UserID, req.TargetId)
	s.challenges.Record(ch.ID, ch.ChallengerID, ch.ChallengedID)

	s.sendToUser(req.TargetId, protocol.KindChallengeRequest, sess.UserID, comm.ChallengeRequest{
		ChallengeId:    ch.ID,
		ChallengerId:   sess.UserID,
		ChallengerName: sess.Username,
		ChallengerElo:  sess.Rating,
	})
	s.push(c, protocol.KindSuccess, 0, sess.UserID, comm.SuccessMessage{Message: "challenge sent"})
}

func (s *Server) handleChallengeAnswer(c *conn, sess *session.Session, f protocol.Frame, accept bool) {
	var req comm.ChallengeAnswer
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		s.pushError(c, sess.UserID, "bad challenge payload")
		return
	}

	ch := s.engine.Resolve(req.ChallengeId, sess.UserID, accept)
	if ch == nil {
		s.pushError(c, sess.UserID, "challenge not found")
		return
	}

	if !accept {
		s.challenges.Resolve(ch.ID, "declined")
		s.sendToUser(ch.ChallengerID, protocol.KindDeclineChallenge, sess.UserID,
			comm.ChallengeAnswer{ChallengeId: ch.ID})
		return
	}

	s.challenges.Resolve(ch.ID, "accepted")
	challenger := s.registry.ByUser(ch.ChallengerID)
	if challenger == nil {
		s.pushError(c, sess.UserID, "challenger no longer online")
		return
	}
	s.startMatch(challenger, sess)
}

// startMatch checks the arena has room, persists the match row, seats
// both players and pushes the match-found notification plus the opening
// snapshot. First moves first.
func (s *Server) startMatch(first, second *session.Session) {
	if err := s.pool.CanSeat(first.UserID, second.UserID); err != nil {
		log.Warnf("cannot seat %d vs %d: %v", first.UserID, second.UserID, err)
		msg := "could not create match"
		if errors.Is(err, game.ErrPoolFull) {
			msg = "server at capacity, try again later"
		}
		s.sendToUser(first.UserID, protocol.KindError, 0, comm.ErrorMessage{Message: msg})
		s.sendToUser(second.UserID, protocol.KindError, 0, comm.ErrorMessage{Message: msg})
		return
	}

	ctx, cancel := opCtx()
	matchID, err := s.matches.CreateMatch(ctx, first.UserID, second.UserID)
	cancel()
	if err != nil {
		log.Errorf("create match for %d vs %d: %v", first.UserID, second.UserID, err)
		s.sendToUser(first.UserID, protocol.KindError, 0, comm.ErrorMessage{Message: "could not create match"})
		s.sendToUser(second.UserID, protocol.KindError, 0, comm.ErrorMessage{Message: "could not create match"})
		return
	}

	// unreachable while the dispatch loop serializes seating; if it ever
	// fires the persisted row stays unfinalized, so say which one
	m, err := s.pool.CreateWithID(matchID, first.UserID, first.Username, second.UserID, second.Username)
	if err != nil {
		log.Errorf("seat match %d after persisting its row, row abandoned: %v", matchID, err)
		s.sendToUser(first.UserID, protocol.KindError, 0, comm.ErrorMessage{Message: "could not create match"})
		s.sendToUser(second.UserID, protocol.KindError, 0, comm.ErrorMessage{Message: "could not create match"})
		return
	}

	delete(s.rematchOffers, first.UserID)
	delete(s.rematchOffers, second.UserID)
	s.registry.SetStatus(first.ConnID, session.StatusInGame, matchID)
	s.registry.SetStatus(second.ConnID, session.StatusInGame, matchID)

	s.sendToUser(first.UserID, protocol.KindMatchFound, 0, comm.MatchFound{
		MatchId:      matchID,
		OpponentId:   second.UserID,
		OpponentName: second.Username,
		OpponentElo:  second.Rating,
		YouMoveFirst: true,
	})
	s.sendToUser(second.UserID, protocol.KindMatchFound, 0, comm.MatchFound{
		MatchId:      matchID,
		OpponentId:   first.UserID,
		OpponentName: first.Username,
		OpponentElo:  first.Rating,
		YouMoveFirst: false,
	})

	snap := m.Snapshot()
	s.sendToUser(first.UserID, protocol.KindGameStart, 0, snap)
	s.sendToUser(second.UserID, protocol.KindGameStart, 0, snap)

	s.broker.PublishMatchCreated(matchID, first.UserID, second.UserID)
	log.Infof("match %d started: %d vs %d", matchID, first.UserID, second.UserID)
}

func (s *Server) handleGameAction(c *conn, sess *session.Session, f protocol.Frame) {
	m := s.pool.ByUser(sess.UserID)
	if m == nil {
		s.pushError(c, sess.UserID, "no active match")
		return
	}
	idx := m.PlayerIndex(sess.UserID)

	var action string
	var err error
	switch f.Kind {
	case protocol.KindRollDice:
		action, err = "roll", m.RollDice(idx)
	case protocol.KindBuyProperty:
		action, err = "buy", m.Buy(idx)
	case protocol.KindSkipProperty:
		action, err = "skip", m.Skip(idx)
	case protocol.KindUpgradeProperty:
		var prop comm.PropertyAction
		if jerr := json.Unmarshal(f.Payload, &prop); jerr != nil {
			s.pushError(c, sess.UserID, "bad property payload")
			return
		}
		action, err = "upgrade", m.Upgrade(idx, prop.PropertyId)
	case protocol.KindDowngradeProperty:
		var prop comm.PropertyAction
		if jerr := json.Unmarshal(f.Payload, &prop); jerr != nil {
			s.pushError(c, sess.UserID, "bad property payload")
			return
		}
		action, err = "downgrade", m.Downgrade(idx, prop.PropertyId)
	case protocol.KindMortgageProperty:
		var prop comm.PropertyAction
		if jerr := json.Unmarshal(f.Payload, &prop); jerr != nil {
			s.pushError(c, sess.UserID, "bad property payload")
			return
		}
		action, err = "mortgage", m.Mortgage(idx, prop.PropertyId)
	case protocol.KindPayJailFine:
		if m.Players[idx].JailCards > 0 {
			action, err = "use_jail_card", m.UseJailCard(idx)
		} else {
			action, err = "pay_jail_fine", m.PayJailFine(idx)
		}
	case protocol.KindDeclareBankrupt:
		action, err = "bankrupt", m.Bankrupt(idx)
	case protocol.KindSurrender:
		action, err = "surrender", m.Surrender(idx)
	case protocol.KindPauseGame:
		action, err = "pause", m.Pause(idx)
	case protocol.KindResumeGame:
		action, err = "resume", m.Resume(idx)
	}

	if err != nil {
		switch {
		case errors.Is(err, game.ErrNotYourTurn):
			s.push(c, protocol.KindNotYourTurn, 0, sess.UserID, comm.ErrorMessage{Message: err.Error()})
		case errors.Is(err, game.ErrInvalidMove):
			s.push(c, protocol.KindInvalidMove, 0, sess.UserID, comm.ErrorMessage{Message: err.Error()})
		default:
			s.pushError(c, sess.UserID, err.Error())
		}
		return
	}

	s.matches.LogMove(m.ID, m.MoveCount, sess.UserID, action, m.LastRoll, m.Players[idx].Position)
	s.broadcastState(m)

	if m.Phase == game.PhaseEnded {
		s.finishMatch(m)
	}
}

func (s *Server) broadcastState(m *game.Match) {
	snap := m.Snapshot()
	for _, pl := range m.Players {
		s.sendToUser(pl.UserID, protocol.KindGameState, 0, snap)
	}
}

// finishMatch settles ratings and persistence for an ended match and
// releases the pool slot. Both players return to idle and may rematch.
func (s *Server) finishMatch(m *game.Match) {
	winner := m.Players[m.Winner]
	loser := m.Players[1-m.Winner]

	ctx, cancel := opCtx()
	result, err := s.matches.Finalize(ctx, m.ID, winner.UserID, loser.UserID, m.EndReason)
	cancel()
	if err != nil {
		log.Errorf("finalize match %d: %v", m.ID, err)
	}

	snap := m.Snapshot()
	for _, pl := range m.Players {
		s.sendToUser(pl.UserID, protocol.KindGameEnd, 0, snap)
		if result != nil {
			s.sendToUser(pl.UserID, protocol.KindGameResult, 0, result)
		}
		if sess := s.registry.ByUser(pl.UserID); sess != nil {
			s.registry.SetStatus(sess.ConnID, session.StatusIdle, 0)
			if result != nil {
				after := result.LoserEloAfter
				if pl.UserID == winner.UserID {
					after = result.WinnerEloAfter
				}
				s.registry.UpdateStats(pl.UserID, after, sess.GamesPlayed+1)
			}
		}
	}
	s.lastOpponent[winner.UserID] = loser.UserID
	s.lastOpponent[loser.UserID] = winner.UserID

	if result != nil {
		s.broker.PublishGameResult(result)
	}
	s.pool.Remove(m.ID)
	log.Infof("match %d ended: winner %d (%s)", m.ID, winner.UserID, m.EndReason)
}

func (s *Server) handleRematchRequest(c *conn, sess *session.Session) {
	opp, ok := s.lastOpponent[sess.UserID]
	if !ok {
		s.pushError(c, sess.UserID, "no recent opponent")
		return
	}
	oppSess := s.registry.ByUser(opp)
	if oppSess == nil || oppSess.Status != session.StatusIdle {
		s.pushError(c, sess.UserID, "opponent unavailable")
		return
	}
	if sess.Status != session.StatusIdle {
		s.pushError(c, sess.UserID, "not available for a rematch")
		return
	}

	s.rematchOffers[sess.UserID] = opp
	s.sendToUser(opp, protocol.KindRematchRequest, sess.UserID, nil)
	s.push(c, protocol.KindSuccess, 0, sess.UserID, comm.SuccessMessage{Message: "rematch offered"})
}

func (s *Server) handleRematchResponse(c *conn, sess *session.Session, f protocol.Frame) {
	var req comm.RematchResponse
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		s.pushError(c, sess.UserID, "bad rematch payload")
		return
	}

	opp, ok := s.lastOpponent[sess.UserID]
	if !ok || s.rematchOffers[opp] != sess.UserID {
		s.pushError(c, sess.UserID, "no rematch offer")
		return
	}
	delete(s.rematchOffers, opp)

	if !req.Accept {
		s.sendToUser(opp, protocol.KindRematchCancelled, sess.UserID, nil)
		return
	}

	offerer := s.registry.ByUser(opp)
	if offerer == nil {
		s.pushError(c, sess.UserID, "opponent no longer online")
		return
	}
	s.startMatch(offerer, sess)
}

func (s *Server) handleHistory(c *conn, sess *session.Session) {
	ctx, cancel := opCtx()
	defer cancel()

	rows, err := s.matches.History(ctx, sess.UserID, 0)
	if err != nil {
		log.Errorf("history for user %d: %v", sess.UserID, err)
		s.pushError(c, sess.UserID, "history unavailable")
		return
	}

	list := comm.HistoryList{Entries: make([]comm.HistoryEntry, 0, len(rows))}
	for _, r := range rows {
		list.Entries = append(list.Entries, comm.HistoryEntry{
			MatchId:      r.MatchId,
			OpponentName: r.OpponentName,
			Won:          r.Won,
			Draw:         r.Draw,
			EloChange:    r.EloChange,
			PlayedAt:     r.PlayedAt.Format(time.RFC3339),
		})
	}
	s.push(c, protocol.KindHistoryList, 0, sess.UserID, list)
}
