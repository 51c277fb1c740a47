// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tokengrant/metrics"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func scrape(t *testing.T) map[string]*dto.MetricFamily {
	rec := httptest.NewRecorder()
	metrics.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	return families
}

func labelsOf(m *dto.Metric) map[string]string {
	labels := make(map[string]string)
	for _, l := range m.GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	return labels
}

func counterValue(families map[string]*dto.MetricFamily, name string, labels map[string]string) float64 {
	family, ok := families[name]
	if !ok {
		return 0
	}
next:
	for _, m := range family.GetMetric() {
		got := labelsOf(m)
		for k, v := range labels {
			if got[k] != v {
				continue next
			}
		}
		return m.GetCounter().GetValue()
	}
	return 0
}

func TestMetricsMiddleware(t *testing.T) {
	tl, ts := newAPIServer(t, Options{AllowedOrigins: "*", EnableMetrics: true})
	grantee := tl.Account(2).Address

	before := scrape(t)
	okLabels := map[string]string{"name": "GET /accounts/{address}", "code": "200", "method": "GET"}
	badLabels := map[string]string{"name": "GET /accounts/{address}", "code": "400", "method": "GET"}
	notFoundLabels := map[string]string{"name": "GET /grants/{id}", "code": "404", "method": "GET"}

	httpGet(t, ts.URL+"/accounts/"+grantee.String())
	httpGet(t, ts.URL+"/accounts/0x")
	httpGet(t, ts.URL+"/grants/42")
	// unmatched routes are not recorded
	httpGet(t, ts.URL+"/nowhere")

	after := scrape(t)
	const name = "token_grant_api_request_count"
	assert.Equal(t, float64(1), counterValue(after, name, okLabels)-counterValue(before, name, okLabels))
	assert.Equal(t, float64(1), counterValue(after, name, badLabels)-counterValue(before, name, badLabels))
	assert.Equal(t, float64(1), counterValue(after, name, notFoundLabels)-counterValue(before, name, notFoundLabels))

	for _, m := range after[name].GetMetric() {
		assert.NotEmpty(t, labelsOf(m)["name"])
	}
	assert.Contains(t, after, "token_grant_api_duration_ms")
}

func TestWebsocketMetrics(t *testing.T) {
	_, ts := newAPIServer(t, Options{AllowedOrigins: "*", EnableMetrics: true})

	gauge := func() float64 {
		for _, m := range scrape(t)["token_grant_api_active_websocket_count"].GetMetric() {
			if labelsOf(m)["subject"] == "grant" {
				return m.GetGauge().GetValue()
			}
		}
		return 0
	}

	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/grant"}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, float64(1), gauge())

	conn.Close()
	assert.Eventually(t, func() bool { return gauge() == 0 }, 5*time.Second, 10*time.Millisecond)
}
