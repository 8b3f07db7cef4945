package handlers_test_suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"golang.org/x/crypto/bcrypt"

	"github.com/rogerio-castellano/reorder-signal/internal/classifier"
	"github.com/rogerio-castellano/reorder-signal/internal/config"
	api "github.com/rogerio-castellano/reorder-signal/internal/http"
	handler "github.com/rogerio-castellano/reorder-signal/internal/http/handlers"
	rl "github.com/rogerio-castellano/reorder-signal/internal/http/rate_limiter"
	"github.com/rogerio-castellano/reorder-signal/internal/models"
	"github.com/rogerio-castellano/reorder-signal/internal/pipeline"
	"github.com/rogerio-castellano/reorder-signal/internal/repo"
	"github.com/rogerio-castellano/reorder-signal/internal/synth"
)

const testBatchSize = 12

var (
	token    string
	runRepo  *repo.InMemoryRunRepository
	userRepo *repo.InMemoryUserRepository
)

func init() {
	setupTestRepos("secret")
	r := api.NewRouter()

	var err error
	token, err = generateToken(r, "admin", "secret")
	if err != nil {
		panic(fmt.Sprintf("error generating token: %v", err))
	}
}

func setupTestRepos(password string) {
	runRepo = repo.NewInMemoryRunRepository()
	handler.SetRunRepo(runRepo)

	userRepo = repo.NewInMemoryUserRepository()
	handler.SetUserRepo(userRepo)

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	userRepo.CreateUser(models.User{
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         "admin",
	})

	handler.SetRunner(newTestRunner(classifier.NewMLPTrainer()))
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		BatchSize:           testBatchSize,
		Epochs:              3,
		LearningRate:        0.05,
		LowStockProbability: 0.6,
		SafetyFactor:        0.5,
		DecisionThreshold:   0.5,
		FetchDelay:          0,
	}
}

func newTestRunner(trainer classifier.Trainer) *pipeline.Runner {
	cfg := testPipelineConfig()
	gen := synth.NewGenerator(1, cfg.LowStockProbability, cfg.SafetyFactor)
	return pipeline.NewRunner(cfg, gen, trainer)
}

func clearAllRuns() {
	runRepo.Clear()
	rl.CleanupAllVisitors()
}

func generateToken(r http.Handler, username, password string) (string, error) {
	payload := handler.UserLogin{Username: username, Password: password}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp handler.LoginResult
	err := json.NewDecoder(w.Body).Decode(&resp)
	if err != nil {
		return "", fmt.Errorf("token decoding failed: %v", err)
	}
	return resp.Token, nil
}

func triggerRun(r http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerUser(r http.Handler, creds handler.CredentialsRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(creds)
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
