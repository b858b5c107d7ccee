// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/huddle/internal/model"
)

func TestEncode_JoinRequest(t *testing.T) {
	frame, err := Encode(EventJoinChat, JoinRequest{Name: "Ana"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"join_chat","data":{"name":"Ana"}}`, string(frame))
}

func TestEncode_SendMessage(t *testing.T) {
	frame, err := Encode(EventSendMessage, SendMessageRequest{Content: "hi", RoomID: "general"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"send_message","data":{"content":"hi","room_id":"general"}}`, string(frame))
}

func TestEncode_NoPayload(t *testing.T) {
	frame, err := Encode(EventGetUsers, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"get_users"}`, string(frame))
}

func TestDecode_AllInboundEvents(t *testing.T) {
	tests := []struct {
		frame string
		check func(t *testing.T, ev Event)
	}{
		{
			`{"event":"connected","data":{"message":"Connected successfully"}}`,
			func(t *testing.T, ev Event) {
				assert.Equal(t, Welcome{Message: "Connected successfully"}, ev)
			},
		},
		{
			`{"event":"joined_chat","data":{"user":{"id":"u1","name":"Ana","is_active":true},"message":"Welcome Ana"}}`,
			func(t *testing.T, ev Event) {
				jc, ok := ev.(JoinConfirmed)
				require.True(t, ok)
				assert.Equal(t, "u1", jc.User.ID)
				assert.Equal(t, "Welcome Ana", jc.Message)
			},
		},
		{
			`{"event":"new_message","data":{"id":"m1","user_id":"u1","user_name":"Ana","content":"hola","message_type":"text","timestamp":"2025-01-01T00:00:00Z","room_id":"general"}}`,
			func(t *testing.T, ev Event) {
				mr, ok := ev.(MessageReceived)
				require.True(t, ok)
				assert.Equal(t, "hola", mr.Content)
				assert.Equal(t, model.MessageTypeText, mr.Type)
			},
		},
		{
			`{"event":"user_joined","data":{"user":{"id":"u2","name":"Bo"},"users_count":2}}`,
			func(t *testing.T, ev Event) {
				assert.Equal(t, 2, ev.(UserJoined).UsersCount)
			},
		},
		{
			`{"event":"user_left","data":{"user":{"id":"u2","name":"Bo"},"users_count":1}}`,
			func(t *testing.T, ev Event) {
				assert.Equal(t, "Bo", ev.(UserLeft).User.Name)
			},
		},
		{
			`{"event":"users_updated","data":{"users":[{"id":"u1","name":"Ana"}],"count":1}}`,
			func(t *testing.T, ev Event) {
				assert.Len(t, ev.(RosterUpdated).Users, 1)
			},
		},
		{
			`{"event":"users_list","data":{"users":[{"id":"u1","name":"Ana"},{"id":"u2","name":"Bo"}]}}`,
			func(t *testing.T, ev Event) {
				assert.Len(t, ev.(RosterSnapshot).Users, 2)
			},
		},
		{
			`{"event":"recent_messages","data":{"messages":[]}}`,
			func(t *testing.T, ev Event) {
				assert.Empty(t, ev.(HistorySnapshot).Messages)
			},
		},
		{
			`{"event":"error","data":{"message":"Name is required"}}`,
			func(t *testing.T, ev Event) {
				assert.Equal(t, ServerError{Message: "Name is required"}, ev)
			},
		},
	}

	for _, tc := range tests {
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(tc.frame), &env))
		t.Run(env.Event, func(t *testing.T) {
			ev, err := Decode([]byte(tc.frame))
			require.NoError(t, err)
			assert.Equal(t, env.Event, ev.Name())
			tc.check(t, ev)
		})
	}
}

func TestDecode_UnknownEvent(t *testing.T) {
	_, err := Decode([]byte(`{"event":"typing","data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"event":"users_list","data":{"users":"nope"}}`))
	assert.Error(t, err)
}

func TestDecode_MissingData(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"error"}`))
	require.NoError(t, err)
	assert.Equal(t, ServerError{}, ev)
}

func TestDecode_BadTimestampKeepsSnapshot(t *testing.T) {
	frame := `{"event":"recent_messages","data":{"messages":[` +
		`{"id":"m1","user_id":"u1","user_name":"Ana","content":"one","message_type":"text","timestamp":"2025-01-01T00:00:00Z","room_id":"general"},` +
		`{"id":"m2","user_id":"u2","user_name":"Bo","content":"two","message_type":"text","timestamp":"not a time","room_id":"general"}]}}`

	ev, err := Decode([]byte(frame))
	require.NoError(t, err)

	snap, ok := ev.(HistorySnapshot)
	require.True(t, ok)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "two", snap.Messages[1].Content)
	assert.True(t, snap.Messages[1].Timestamp.IsZero())
	assert.Equal(t, []string{"not a time"}, MalformedTimestamps(ev))
}

func TestMalformedTimestamps_Users(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"users_list","data":{"users":[{"id":"u1","name":"Ana","joined_at":"soon"},{"id":"u2","name":"Bo","joined_at":""}]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"soon"}, MalformedTimestamps(ev))

	assert.Empty(t, MalformedTimestamps(Welcome{}))
}
