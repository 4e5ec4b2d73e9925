// Package protocol implements the binary wire format shared with clients.
//
// Every message is a fixed 16-byte header followed by an optional JSON
// payload. Header fields are big-endian uint32: kind, sender id, target id,
// payload length. Payloads are capped at MaxPayload bytes.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	HeaderSize = 16
	MaxPayload = 4096
)

// ErrMalformedFrame marks a frame whose header or payload cannot be trusted.
// It is a per-message error: the dispatcher drops the frame and keeps the
// connection unless the peer keeps misbehaving.
var ErrMalformedFrame = errors.New("protocol: malformed frame")

// Kind identifies a wire message type.
type Kind uint32

const (
	KindRegister         Kind = 1
	KindRegisterResponse Kind = 2
	KindLogin            Kind = 3
	KindLoginResponse    Kind = 4
	KindLogout           Kind = 5

	KindGetOnlinePlayers  Kind = 10
	KindOnlinePlayersList Kind = 11
	KindSearchMatch       Kind = 12
	KindMatchFound        Kind = 13
	KindCancelSearch      Kind = 14
	KindSendChallenge     Kind = 15
	KindChallengeRequest  Kind = 16
	KindAcceptChallenge   Kind = 17
	KindDeclineChallenge  Kind = 18

	KindGameStart         Kind = 20
	KindGameState         Kind = 21
	KindRollDice          Kind = 22
	KindBuyProperty       Kind = 23
	KindSkipProperty      Kind = 24
	KindUpgradeProperty   Kind = 25
	KindDowngradeProperty Kind = 26
	KindMortgageProperty  Kind = 27
	KindPayJailFine       Kind = 28
	KindDeclareBankrupt   Kind = 29
	KindGameEnd           Kind = 30
	KindGameResult        Kind = 31
	KindRematchRequest    Kind = 32
	KindRematchResponse   Kind = 33
	KindRematchCancelled  Kind = 34
	KindPauseGame         Kind = 35
	KindResumeGame        Kind = 36
	KindSurrender         Kind = 37
	KindGetHistory        Kind = 38
	KindHistoryList       Kind = 39

	KindSuccess      Kind = 100
	KindError        Kind = 101
	KindInvalidMove  Kind = 102
	KindNotYourTurn  Kind = 103
	KindHeartbeat    Kind = 104
	KindHeartbeatAck Kind = 105
)

func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindRegisterResponse:
		return "register_response"
	case KindLogin:
		return "login"
	case KindLoginResponse:
		return "login_response"
	case KindLogout:
		return "logout"
	case KindGetOnlinePlayers:
		return "get_online_players"
	case KindOnlinePlayersList:
		return "online_players_list"
	case KindSearchMatch:
		return "search_match"
	case KindMatchFound:
		return "match_found"
	case KindCancelSearch:
		return "cancel_search"
	case KindSendChallenge:
		return "send_challenge"
	case KindChallengeRequest:
		return "challenge_request"
	case KindAcceptChallenge:
		return "accept_challenge"
	case KindDeclineChallenge:
		return "decline_challenge"
	case KindGameStart:
		return "game_start"
	case KindGameState:
		return "game_state"
	case KindRollDice:
		return "roll_dice"
	case KindBuyProperty:
		return "buy_property"
	case KindSkipProperty:
		return "skip_property"
	case KindUpgradeProperty:
		return "upgrade_property"
	case KindDowngradeProperty:
		return "downgrade_property"
	case KindMortgageProperty:
		return "mortgage_property"
	case KindPayJailFine:
		return "pay_jail_fine"
	case KindDeclareBankrupt:
		return "declare_bankrupt"
	case KindGameEnd:
		return "game_end"
	case KindGameResult:
		return "game_result"
	case KindRematchRequest:
		return "rematch_request"
	case KindRematchResponse:
		return "rematch_response"
	case KindRematchCancelled:
		return "rematch_cancelled"
	case KindPauseGame:
		return "pause_game"
	case KindResumeGame:
		return "resume_game"
	case KindSurrender:
		return "surrender"
	case KindGetHistory:
		return "get_history"
	case KindHistoryList:
		return "history_list"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	case KindInvalidMove:
		return "invalid_move"
	case KindNotYourTurn:
		return "not_your_turn"
	case KindHeartbeat:
		return "heartbeat"
	case KindHeartbeatAck:
		return "heartbeat_ack"
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// Frame is one decoded wire message.
type Frame struct {
	Kind     Kind
	SenderID uint32
	TargetID uint32
	Payload  []byte
}

// Encode serializes a frame into header + payload bytes.
func Encode(kind Kind, senderID, targetID uint32, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: payload %d exceeds max %d", ErrMalformedFrame, len(payload), MaxPayload)
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(kind))
	binary.BigEndian.PutUint32(buf[4:8], senderID)
	binary.BigEndian.PutUint32(buf[8:12], targetID)
	binary.BigEndian.PutUint32(buf[12:16], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// Decode parses a complete frame from a byte slice.
func Decode(data []byte) (Frame, error) {
	if len(data) < HeaderSize {
		return Frame{}, fmt.Errorf("%w: short header (%d bytes)", ErrMalformedFrame, len(data))
	}
	plen := binary.BigEndian.Uint32(data[12:16])
	if plen > MaxPayload {
		return Frame{}, fmt.Errorf("%w: declared payload %d exceeds max %d", ErrMalformedFrame, plen, MaxPayload)
	}
	if uint32(len(data)-HeaderSize) < plen {
		return Frame{}, fmt.Errorf("%w: payload truncated, want %d have %d", ErrMalformedFrame, plen, len(data)-HeaderSize)
	}
	f := Frame{
		Kind:     Kind(binary.BigEndian.Uint32(data[0:4])),
		SenderID: binary.BigEndian.Uint32(data[4:8]),
		TargetID: binary.BigEndian.Uint32(data[8:12]),
	}
	if plen > 0 {
		f.Payload = make([]byte, plen)
		copy(f.Payload, data[HeaderSize:HeaderSize+plen])
	}
	return f, nil
}

// ReadFrame reads exactly one frame from a stream. io.EOF is returned
// unchanged when the stream closes cleanly between frames.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("%w: reading header: %v", ErrMalformedFrame, err)
	}
	plen := binary.BigEndian.Uint32(header[12:16])
	if plen > MaxPayload {
		return Frame{}, fmt.Errorf("%w: declared payload %d exceeds max %d", ErrMalformedFrame, plen, MaxPayload)
	}
	f := Frame{
		Kind:     Kind(binary.BigEndian.Uint32(header[0:4])),
		SenderID: binary.BigEndian.Uint32(header[4:8]),
		TargetID: binary.BigEndian.Uint32(header[8:12]),
	}
	if plen > 0 {
		f.Payload = make([]byte, plen)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return Frame{}, fmt.Errorf("%w: reading payload: %v", ErrMalformedFrame, err)
		}
	}
	return f, nil
}
