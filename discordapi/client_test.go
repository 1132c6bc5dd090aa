package discordapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/onnwee/faceit-bridge/discordapi"
	"github.com/onnwee/faceit-bridge/testutil"
)

func TestCreateVoiceChannel(t *testing.T) {
	mock := testutil.NewMockDiscordServer(t)
	var gotAuth string
	var gotPayload map[string]any
	mock.Handlers["POST /guilds/g1/channels"] = func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload) //nolint:errcheck // test capture
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"c1"}`))
	}

	client := &discordapi.Client{BaseURL: mock.URL, BotToken: "tok"}
	id, err := client.CreateVoiceChannel(context.Background(), "g1", "Match abc-faction1", "cat1", []string{"u1", "u2"})
	if err != nil {
		t.Fatalf("CreateVoiceChannel() error = %v", err)
	}
	if id != "c1" {
		t.Errorf("channel id = %q, want c1", id)
	}
	if gotAuth != "Bot tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPayload["name"] != "Match abc-faction1" {
		t.Errorf("name = %v", gotPayload["name"])
	}
	if gotPayload["type"] != float64(2) {
		t.Errorf("type = %v, want 2 (guild voice)", gotPayload["type"])
	}
	if gotPayload["parent_id"] != "cat1" {
		t.Errorf("parent_id = %v", gotPayload["parent_id"])
	}
	overwrites, _ := gotPayload["permission_overwrites"].([]any)
	if len(overwrites) != 3 {
		t.Fatalf("permission overwrites = %d, want 3 (@everyone deny + 2 members)", len(overwrites))
	}
	everyone, _ := overwrites[0].(map[string]any)
	if everyone["id"] != "g1" || everyone["deny"] == "" || everyone["deny"] == "0" {
		t.Errorf("@everyone overwrite = %v, want deny on guild role", everyone)
	}
}

func TestCreateVoiceChannelNoCategory(t *testing.T) {
	mock := testutil.NewMockDiscordServer(t)
	var gotPayload map[string]any
	mock.Handlers["POST /guilds/g1/channels"] = func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload) //nolint:errcheck // test capture
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"c1"}`))
	}

	client := &discordapi.Client{BaseURL: mock.URL, BotToken: "tok"}
	if _, err := client.CreateVoiceChannel(context.Background(), "g1", "n", "", nil); err != nil {
		t.Fatalf("CreateVoiceChannel() error = %v", err)
	}
	if _, ok := gotPayload["parent_id"]; ok {
		t.Error("parent_id present in payload without a category")
	}
}

func TestCreateVoiceChannelAPIError(t *testing.T) {
	mock := testutil.NewMockDiscordServer(t)
	mock.Handlers["POST /guilds/g1/channels"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Missing Permissions"}`))
	}

	client := &discordapi.Client{BaseURL: mock.URL, BotToken: "tok"}
	if _, err := client.CreateVoiceChannel(context.Background(), "g1", "n", "", nil); err == nil {
		t.Error("CreateVoiceChannel() expected error on 403")
	}
}

func TestMoveMember(t *testing.T) {
	mock := testutil.NewMockDiscordServer(t)
	var gotPayload map[string]any
	mock.Handlers["PATCH /guilds/g1/members/u1"] = func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload) //nolint:errcheck // test capture
		w.WriteHeader(http.StatusNoContent)
	}

	client := &discordapi.Client{BaseURL: mock.URL, BotToken: "tok"}
	if err := client.MoveMember(context.Background(), "g1", "u1", "c1"); err != nil {
		t.Fatalf("MoveMember() error = %v", err)
	}
	if gotPayload["channel_id"] != "c1" {
		t.Errorf("channel_id = %v, want c1", gotPayload["channel_id"])
	}
}

func TestMoveMemberNotConnected(t *testing.T) {
	mock := testutil.NewMockDiscordServer(t)
	mock.MockMemberNotConnected("g1", "u1")

	client := &discordapi.Client{BaseURL: mock.URL, BotToken: "tok"}
	err := client.MoveMember(context.Background(), "g1", "u1", "c1")
	if !errors.Is(err, discordapi.ErrMemberNotConnected) {
		t.Errorf("MoveMember() error = %v, want ErrMemberNotConnected", err)
	}
}

func TestDisconnectMemberSendsNullChannel(t *testing.T) {
	mock := testutil.NewMockDiscordServer(t)
	var gotPayload map[string]any
	mock.Handlers["PATCH /guilds/g1/members/u1"] = func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload) //nolint:errcheck // test capture
		w.WriteHeader(http.StatusNoContent)
	}

	client := &discordapi.Client{BaseURL: mock.URL, BotToken: "tok"}
	if err := client.DisconnectMember(context.Background(), "g1", "u1"); err != nil {
		t.Fatalf("DisconnectMember() error = %v", err)
	}
	v, present := gotPayload["channel_id"]
	if !present || v != nil {
		t.Errorf("channel_id = %v (present=%v), want explicit null", v, present)
	}
}

func TestDeleteChannel(t *testing.T) {
	mock := testutil.NewMockDiscordServer(t)
	mock.MockChannelDelete("c1")

	client := &discordapi.Client{BaseURL: mock.URL, BotToken: "tok"}
	if err := client.DeleteChannel(context.Background(), "c1"); err != nil {
		t.Fatalf("DeleteChannel() error = %v", err)
	}
	if mock.ChannelDeletes.Load() != 1 {
		t.Errorf("delete calls = %d, want 1", mock.ChannelDeletes.Load())
	}
}

func TestDeleteChannelGoneIsSuccess(t *testing.T) {
	mock := testutil.NewMockDiscordServer(t)
	// No handler registered: the mock answers 404, which must read as already deleted.

	client := &discordapi.Client{BaseURL: mock.URL, BotToken: "tok"}
	if err := client.DeleteChannel(context.Background(), "gone"); err != nil {
		t.Errorf("DeleteChannel() error = %v, want nil for 404", err)
	}
}

func TestDeleteChannelAPIError(t *testing.T) {
	mock := testutil.NewMockDiscordServer(t)
	mock.Handlers["DELETE /channels/c1"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}

	client := &discordapi.Client{BaseURL: mock.URL, BotToken: "tok"}
	if err := client.DeleteChannel(context.Background(), "c1"); err == nil {
		t.Error("DeleteChannel() expected error on 403")
	}
}

func TestValidationErrors(t *testing.T) {
	client := &discordapi.Client{}
	if _, err := client.CreateVoiceChannel(context.Background(), "", "n", "", nil); err == nil {
		t.Error("CreateVoiceChannel() expected error for empty guildID")
	}
	if err := client.MoveMember(context.Background(), "g1", "", "c1"); err == nil {
		t.Error("MoveMember() expected error for empty userID")
	}
	if err := client.DeleteChannel(context.Background(), ""); err == nil {
		t.Error("DeleteChannel() expected error for empty channelID")
	}
}
