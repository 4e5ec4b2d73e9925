package broker

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"monopoly-service/internal/comm"
)

const (
	TopicMatchCreated = "monopoly.match.created"
	TopicGameResult   = "monopoly.game.result"
	TopicPlayerOnline = "monopoly.player.online"
)

// Broker publishes game lifecycle events to NATS. A nil connection is
// allowed so the service can run without a broker.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

type MatchCreatedEvent struct {
	MatchId   uint32 `json:"match_id"`
	Player1Id uint32 `json:"player1_id"`
	Player2Id uint32 `json:"player2_id"`
	Timestamp int64  `json:"ts"`
}

type PlayerOnlineEvent struct {
	UserId    uint32 `json:"user_id"`
	Username  string `json:"username"`
	Online    bool   `json:"online"`
	Timestamp int64  `json:"ts"`
}

func (b *Broker) PublishMatchCreated(matchId, player1Id, player2Id uint32) {
	ev := MatchCreatedEvent{
		MatchId:   matchId,
		Player1Id: player1Id,
		Player2Id: player2Id,
		Timestamp: time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("unable to marshal match created event %d: %s", matchId, err)
		return
	}

	b.Publish(TopicMatchCreated, payload)
}

func (b *Broker) PublishGameResult(result *comm.GameResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		log.Errorf("unable to marshal game result %d: %s", result.MatchId, err)
		return
	}

	b.Publish(TopicGameResult, payload)
}

func (b *Broker) PublishPlayerOnline(userId uint32, username string, online bool) {
	ev := PlayerOnlineEvent{
		UserId:    userId,
		Username:  username,
		Online:    online,
		Timestamp: time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("unable to marshal player online event %d: %s", userId, err)
		return
	}

	b.Publish(TopicPlayerOnline, payload)
}

func (b *Broker) Publish(topic string, payload []byte) error {
	if b == nil || b.Conn == nil {
		return nil
	}

	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
