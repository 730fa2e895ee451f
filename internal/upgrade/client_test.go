package upgrade

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cosmoswatch/upgradewatch/internal/core/domain"
)

func testClient() *Client {
	return NewClient(Config{Timeout: 2 * time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLatestBlockHeight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"result":{"sync_info":{"latest_block_height":"12345"}}}`))
	}))
	defer srv.Close()

	if got := testClient().LatestBlockHeight(context.Background(), srv.URL); got != 12345 {
		t.Errorf("expected height 12345, got %d", got)
	}
}

func TestLatestBlockHeight_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if got := testClient().LatestBlockHeight(context.Background(), srv.URL); got != domain.HeightUnknown {
		t.Errorf("expected sentinel %d, got %d", domain.HeightUnknown, got)
	}
}

func TestLatestBlockHeight_Unreachable(t *testing.T) {
	if got := testClient().LatestBlockHeight(context.Background(), "http://127.0.0.1:1"); got != domain.HeightUnknown {
		t.Errorf("expected sentinel %d, got %d", domain.HeightUnknown, got)
	}
}

func TestLatestBlockHeight_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	if got := testClient().LatestBlockHeight(context.Background(), srv.URL); got != domain.HeightUnknown {
		t.Errorf("expected sentinel %d, got %d", domain.HeightUnknown, got)
	}
}

func TestLatestBlockHeight_MissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	if got := testClient().LatestBlockHeight(context.Background(), srv.URL); got != 0 {
		t.Errorf("expected 0 for missing field, got %d", got)
	}
}

func TestActiveUpgradeProposals(t *testing.T) {
	body := `{"proposals":[
		{"content":{"@type":"/cosmos.gov.v1beta1.TextProposal","description":"vote for v9"}},
		{"content":{"@type":"/cosmos.upgrade.v1beta1.SoftwareUpgradeProposal",
			"description":"see v2",
			"plan":{"name":"upgrade-v2.1.0-handler","height":"1000"}}}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cosmos/gov/v1beta1/proposals" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("proposal_status") != "2" {
			t.Errorf("expected proposal_status=2, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	info, err := testClient().ActiveUpgradeProposals(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info == nil {
		t.Fatal("expected upgrade info")
	}
	if info.Version != "2.1.0" {
		t.Errorf("expected version 2.1.0 (longer match wins), got %s", info.Version)
	}
	if info.Height != 1000 {
		t.Errorf("expected height 1000, got %d", info.Height)
	}
}

func TestActiveUpgradeProposals_DescriptionOnly(t *testing.T) {
	body := `{"proposals":[
		{"content":{"@type":"/cosmos.upgrade.v1beta1.SoftwareUpgradeProposal",
			"description":"vault v1.4",
			"plan":{"name":"major-upgrade","height":"bad"}}}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	info, err := testClient().ActiveUpgradeProposals(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info == nil {
		t.Fatal("expected upgrade info")
	}
	if info.Version != "1.4" {
		t.Errorf("expected version 1.4, got %s", info.Version)
	}
	if info.Height != 0 {
		t.Errorf("expected height 0 for unparseable plan height, got %d", info.Height)
	}
}

func TestActiveUpgradeProposals_VersionlessSkipped(t *testing.T) {
	body := `{"proposals":[
		{"content":{"@type":"/cosmos.upgrade.v1beta1.SoftwareUpgradeProposal",
			"description":"no version at all",
			"plan":{"name":"mystery","height":"500"}}},
		{"content":{"@type":"/cosmos.upgrade.v1beta1.SoftwareUpgradeProposal",
			"description":"second one",
			"plan":{"name":"v3","height":"900"}}}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	info, err := testClient().ActiveUpgradeProposals(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info == nil {
		t.Fatal("expected the second proposal to qualify")
	}
	if info.Version != "3" || info.Height != 900 {
		t.Errorf("expected version 3 at height 900, got %s at %d", info.Version, info.Height)
	}
}

func TestActiveUpgradeProposals_NotImplemented(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	}))
	defer srv.Close()

	info, err := testClient().ActiveUpgradeProposals(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("501 must not be an error, got: %v", err)
	}
	if info != nil {
		t.Errorf("501 must mean no upgrade, got %+v", info)
	}
}

func TestActiveUpgradeProposals_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := testClient().ActiveUpgradeProposals(context.Background(), srv.URL); err == nil {
		t.Error("expected error for non-success status")
	}
}

func TestActiveUpgradeProposals_NoProposals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"proposals":[]}`))
	}))
	defer srv.Close()

	info, err := testClient().ActiveUpgradeProposals(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info != nil {
		t.Errorf("expected no upgrade, got %+v", info)
	}
}

func TestCurrentUpgradePlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cosmos/upgrade/v1beta1/current_plan" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"plan":{"name":"v3.2","height":"500"}}`))
	}))
	defer srv.Close()

	info, err := testClient().CurrentUpgradePlan(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info == nil {
		t.Fatal("expected upgrade info")
	}
	if info.Version != "3.2" || info.Height != 500 {
		t.Errorf("expected version 3.2 at height 500, got %s at %d", info.Version, info.Height)
	}
}

func TestCurrentUpgradePlan_NoPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"plan":null}`))
	}))
	defer srv.Close()

	info, err := testClient().CurrentUpgradePlan(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info != nil {
		t.Errorf("expected no upgrade, got %+v", info)
	}
}

func TestCurrentUpgradePlan_VersionlessName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"plan":{"name":"big-bang","height":"500"}}`))
	}))
	defer srv.Close()

	info, err := testClient().CurrentUpgradePlan(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info != nil {
		t.Errorf("plan without extractable version must not qualify, got %+v", info)
	}
}

func TestCurrentUpgradePlan_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := testClient().CurrentUpgradePlan(context.Background(), srv.URL); err == nil {
		t.Error("expected error for non-success status")
	}
}

func TestNodeVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/node_info" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"application_version":{"version":"6.0.2"}}`))
	}))
	defer srv.Close()

	version, err := testClient().NodeVersion(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != "6.0.2" {
		t.Errorf("expected version 6.0.2, got %s", version)
	}
}
