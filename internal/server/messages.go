package server

import (
	"time"
)

// ClientMessage is the envelope for client-to-server events. Exactly one of
// the event fields is set per message.
type ClientMessage struct {
	Join   *JoinChannel  `json:"joinChannel,omitempty"`
	Leave  *LeaveChannel `json:"leaveChannel,omitempty"`
	Send   *SendMessage  `json:"sendMessage,omitempty"`
	Typing *TypingSignal `json:"typing,omitempty"`

	client *Client
}

type JoinChannel struct {
	ChannelId string `json:"channelId"`
}

type LeaveChannel struct {
	ChannelId string `json:"channelId"`
}

type SendMessage struct {
	ChannelId string `json:"channelId"`
	Content   string `json:"content"`
}

type TypingSignal struct {
	ChannelId string `json:"channelId"`
}

// ServerMessage is the envelope for server-to-client events.
type ServerMessage struct {
	UserJoined        *PresenceEvent  `json:"userJoined,omitempty"`
	Message           *MessagePayload `json:"receiveMessage,omitempty"`
	UserTyping        *PresenceEvent  `json:"userTyping,omitempty"`
	UserStoppedTyping *PresenceEvent  `json:"userStoppedTyping,omitempty"`
	Error             string          `json:"error,omitempty"`

	// SkipClient excludes one connection from a room broadcast
	SkipClient *Client `json:"-"`
}

type PresenceEvent struct {
	UserId    int    `json:"userId"`
	ChannelId string `json:"channelId"`
}

type MessagePayload struct {
	MessageId int       `json:"messageId"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	ChannelId string    `json:"channelId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Sender struct {
	Id    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func ErrInvalidMessage() *ServerMessage {
	return &ServerMessage{Error: "Invalid message format"}
}

func ErrFailedToJoin() *ServerMessage {
	return &ServerMessage{Error: "Failed to join channel"}
}

func ErrFailedToSend() *ServerMessage {
	return &ServerMessage{Error: "Failed to send message"}
}

func ErrEmptyMessage() *ServerMessage {
	return &ServerMessage{Error: "Message content is required"}
}

func ErrChannelNotFound() *ServerMessage {
	return &ServerMessage{Error: "Channel not found"}
}

func ErrDeliveryIncomplete() *ServerMessage {
	return &ServerMessage{Error: "Message saved but not delivered to all members"}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
