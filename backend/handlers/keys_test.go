// Copyright (C) 2026 quillchat.dev <security@quillchat.dev>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillchat/keybroker/backend/apperrors"
	"github.com/quillchat/keybroker/backend/config"
	"github.com/quillchat/keybroker/backend/crypto"
	"github.com/quillchat/keybroker/backend/middleware"
	"github.com/quillchat/keybroker/backend/models"
	"github.com/quillchat/keybroker/backend/service"
	"github.com/quillchat/keybroker/backend/storage"
	"github.com/quillchat/keybroker/backend/storage/mocks"
	"github.com/quillchat/keybroker/backend/testkeys"
)

func newTestHandler(t *testing.T) (*KeyHandler, *mocks.MockKeyStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := mocks.NewMockKeyStore(ctrl)

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := service.NewKeyService(store, nil, log, config.PreKeys{MinPool: 25, BatchHint: 100})
	return NewKeyHandler(svc, log), store
}

func testRouter(h *KeyHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/keys", h.RegisterKeys).Methods("POST")
	r.HandleFunc("/bundle/{user_id}", h.GetPreKeyBundle).Methods("GET")
	r.HandleFunc("/keys/replenish", h.ReplenishPreKeys).Methods("POST")
	r.HandleFunc("/keys/count", h.PreKeyCount).Methods("GET")
	r.HandleFunc("/keys/signed/rotate", h.RotateSignedPreKey).Methods("POST")
	r.HandleFunc("/keys/identity/{key_id}/verify", h.VerifyIdentityKey).Methods("POST")
	r.HandleFunc("/keys/identity/{key_id}/revoke", h.RevokeIdentityKey).Methods("POST")
	r.HandleFunc("/safety-number/{user_id}", h.SafetyNumber).Methods("GET")
	return r
}

// doJSON issues a request as userID/deviceID and decodes the JSON reply.
func doJSON(t *testing.T, router *mux.Router, method, path, userID, deviceID string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req = middleware.WithIdentity(req, userID, deviceID)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	decoded := map[string]json.RawMessage{}
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	}
	return rr, decoded
}

func validRegistrationBody(t *testing.T) (models.KeyRegistration, *testkeys.Device) {
	t.Helper()

	dev, err := testkeys.NewDevice()
	require.NoError(t, err)

	spkPub, spkSig, err := dev.SignedPreKey()
	require.NoError(t, err)

	otpks, err := testkeys.OneTimePreKeys(2)
	require.NoError(t, err)

	reg := models.KeyRegistration{
		DeviceID:    "phone",
		IdentityKey: testkeys.B64(dev.IdentityPub),
		SignedPreKey: models.SignedPreKeyUpload{
			KeyID:     1,
			PublicKey: testkeys.B64(spkPub),
			Signature: testkeys.B64(spkSig),
		},
		OneTimePreKeys: []models.OneTimePreKeyUpload{
			{KeyID: 1, PublicKey: testkeys.B64(otpks[0])},
			{KeyID: 2, PublicKey: testkeys.B64(otpks[1])},
		},
	}
	return reg, dev
}

func TestRegisterKeysEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		h, store := newTestHandler(t)
		reg, dev := validRegistrationBody(t)
		fp := crypto.Fingerprint(dev.IdentityPub)

		store.EXPECT().
			RegisterKeys(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&storage.RegisterOutcome{IdentityKeyID: fp, SignedPreKeyID: 1, OneTimeAdded: 2}, nil)

		rr, _ := doJSON(t, testRouter(h), http.MethodPost, "/keys", "alice", "phone", reg)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var result models.RegistrationResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, fp, result.IdentityKeyID)
		assert.Equal(t, 2, result.OneTimePreKeys)
		assert.False(t, result.IdentityRekeyed)
	})

	t.Run("no auth", func(t *testing.T) {
		h, _ := newTestHandler(t)
		reg, _ := validRegistrationBody(t)

		rr, _ := doJSON(t, testRouter(h), http.MethodPost, "/keys", "", "", reg)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("tampered signature", func(t *testing.T) {
		h, _ := newTestHandler(t)
		reg, _ := validRegistrationBody(t)
		other, err := testkeys.NewDevice()
		require.NoError(t, err)
		reg.IdentityKey = testkeys.B64(other.IdentityPub)

		rr, body := doJSON(t, testRouter(h), http.MethodPost, "/keys", "alice", "phone", reg)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `"INVALID_ARGUMENT"`, string(body["code"]))
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		h, _ := newTestHandler(t)

		rr, body := doJSON(t, testRouter(h), http.MethodPost, "/keys", "alice", "phone",
			map[string]string{"not_a_field": "x"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `"INVALID_ARGUMENT"`, string(body["code"]))
	})

	t.Run("storage failure hides cause", func(t *testing.T) {
		h, store := newTestHandler(t)
		reg, _ := validRegistrationBody(t)

		store.EXPECT().
			RegisterKeys(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, apperrors.ErrStorage(assert.AnError))

		rr, body := doJSON(t, testRouter(h), http.MethodPost, "/keys", "alice", "phone", reg)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `"INTERNAL"`, string(body["code"]))
		assert.NotContains(t, string(body["message"]), assert.AnError.Error())
	})
}

func TestGetPreKeyBundleEndpoint(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h, store := newTestHandler(t)
		otpkID := 7

		store.EXPECT().
			GetPreKeyBundle(gomock.Any(), "bob", "alice").
			Return(&models.PreKeyBundle{
				UserID:          "bob",
				DeviceID:        "phone",
				IdentityKeyID:   "abc",
				SignedPreKeyID:  1,
				OneTimePreKeyID: &otpkID,
			}, nil)

		rr, _ := doJSON(t, testRouter(h), http.MethodGet, "/bundle/bob", "alice", "phone", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var bundle models.PreKeyBundle
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bundle))
		assert.Equal(t, "bob", bundle.UserID)
		require.NotNil(t, bundle.OneTimePreKeyID)
		assert.Equal(t, 7, *bundle.OneTimePreKeyID)
	})

	t.Run("unknown target", func(t *testing.T) {
		h, store := newTestHandler(t)

		store.EXPECT().
			GetPreKeyBundle(gomock.Any(), "ghost", "alice").
			Return(nil, apperrors.ErrNoIdentityKey)

		rr, body := doJSON(t, testRouter(h), http.MethodGet, "/bundle/ghost", "alice", "phone", nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `"NOT_FOUND"`, string(body["code"]))
	})
}

func TestLifecycleEndpoints(t *testing.T) {
	t.Run("verify revoked key conflicts", func(t *testing.T) {
		h, store := newTestHandler(t)

		store.EXPECT().
			MarkIdentityVerified(gomock.Any(), "alice", "deadbeef").
			Return(apperrors.ErrKeyRevoked)

		rr, body := doJSON(t, testRouter(h), http.MethodPost, "/keys/identity/deadbeef/verify", "alice", "phone", nil)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.JSONEq(t, `"CONFLICT"`, string(body["code"]))
	})

	t.Run("revoke ok", func(t *testing.T) {
		h, store := newTestHandler(t)

		store.EXPECT().
			RevokeIdentityKey(gomock.Any(), "alice", "deadbeef").
			Return(nil)

		rr, body := doJSON(t, testRouter(h), http.MethodPost, "/keys/identity/deadbeef/revoke", "alice", "phone", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `"revoked"`, string(body["status"]))
	})

	t.Run("rotate ok", func(t *testing.T) {
		h, store := newTestHandler(t)

		dev, err := testkeys.NewDevice()
		require.NoError(t, err)
		spkPub, spkSig, err := dev.SignedPreKey()
		require.NoError(t, err)

		store.EXPECT().
			CurrentIdentityKey(gomock.Any(), "alice").
			Return(&models.IdentityKey{UserID: "alice", PublicKey: dev.IdentityPub}, nil)
		store.EXPECT().
			RotateSignedPreKey(gomock.Any(), gomock.Any()).
			Return(nil)

		req := models.RotateRequest{SignedPreKey: models.SignedPreKeyUpload{
			KeyID:     4,
			PublicKey: testkeys.B64(spkPub),
			Signature: testkeys.B64(spkSig),
		}}
		rr, body := doJSON(t, testRouter(h), http.MethodPost, "/keys/signed/rotate", "alice", "phone", req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `4`, string(body["signed_pre_key_id"]))
	})
}

func TestPreKeyCountEndpoint(t *testing.T) {
	h, store := newTestHandler(t)

	store.EXPECT().
		UnusedPreKeyCount(gomock.Any(), "alice").
		Return(12, nil)

	rr, _ := doJSON(t, testRouter(h), http.MethodGet, "/keys/count", "alice", "phone", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var count models.PreKeyCount
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &count))
	assert.Equal(t, 12, count.Remaining)
	assert.Equal(t, 25, count.MinPool)
}

func TestSafetyNumberEndpoint(t *testing.T) {
	h, store := newTestHandler(t)

	alice, err := testkeys.NewDevice()
	require.NoError(t, err)
	bob, err := testkeys.NewDevice()
	require.NoError(t, err)

	store.EXPECT().
		CurrentIdentityKey(gomock.Any(), "alice").
		Return(&models.IdentityKey{UserID: "alice", PublicKey: alice.IdentityPub}, nil)
	store.EXPECT().
		CurrentIdentityKey(gomock.Any(), "bob").
		Return(&models.IdentityKey{UserID: "bob", PublicKey: bob.IdentityPub}, nil)

	rr, _ := doJSON(t, testRouter(h), http.MethodGet, "/safety-number/bob", "alice", "phone", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var sn models.SafetyNumber
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sn))
	assert.Equal(t, "alice", sn.UserID)
	assert.Equal(t, "bob", sn.PeerID)
	assert.Equal(t, crypto.SafetyNumber(alice.IdentityPub, bob.IdentityPub), sn.SafetyNumber)
}
