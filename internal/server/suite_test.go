/*
Copyright 2024 The Clair authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Server Suite")
}

var _ = BeforeSuite(func() {
	gin.SetMode(gin.TestMode)
})

func createTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// performRequest drives one request through the engine and returns the
// recorded response. A non-nil body is sent as JSON.
func performRequest(engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request

	if body != nil {
		payload, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req, err = http.NewRequestWithContext(context.Background(), method, path, bytes.NewBuffer(payload))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
	} else {
		var err error
		req, err = http.NewRequestWithContext(context.Background(), method, path, http.NoBody)
		Expect(err).NotTo(HaveOccurred())
	}

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func parseJSONResponse(recorder *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(recorder.Body.Bytes(), v)
}
