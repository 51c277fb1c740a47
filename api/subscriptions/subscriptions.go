// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/api/utils"
	"github.com/vechain/tokengrant/co"
	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/log"
	"github.com/vechain/tokengrant/metrics"
	"github.com/vechain/tokengrant/thor"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	metricActiveCount = metrics.LazyLoadGaugeVec("api_active_websocket_count", []string{"subject"})
)

type Subscriptions struct {
	dispatcher *dispatcher
	upgrader   *websocket.Upgrader
	done       chan struct{}
	closeOnce  sync.Once
	goes       co.Goes
}

func New(ledger *ledger.Ledger, allowedOrigins []string) *Subscriptions {
	s := &Subscriptions{
		dispatcher: newDispatcher(ledger),
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}

	s.goes.Go(func() {
		s.dispatcher.DispatchLoop(s.done)
	})
	return s
}

func parseMatchers(req *http.Request) ([]func(*ledger.Event) bool, error) {
	var matchers []func(*ledger.Event) bool
	query := req.URL.Query()

	if v := query.Get("grantId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.WithMessage(err, "grantId")
		}
		matchers = append(matchers, func(ev *ledger.Event) bool { return ev.GrantID == id })
	}
	if v := query.Get("account"); v != "" {
		addr, err := thor.ParseAddress(v)
		if err != nil {
			return nil, errors.WithMessage(err, "account")
		}
		matchers = append(matchers, func(ev *ledger.Event) bool { return ev.Account == addr })
	}
	if v := query.Get("type"); v != "" {
		typ := ledger.EventType(v)
		matchers = append(matchers, func(ev *ledger.Event) bool { return ev.Type == typ })
	}
	return matchers, nil
}

func (s *Subscriptions) handleSubjectGrant(w http.ResponseWriter, req *http.Request) error {
	matchers, err := parseMatchers(req)
	if err != nil {
		return utils.BadRequest(err)
	}

	// listen before the handshake completes, so no event after it is missed
	lsn := newListener(matchers...)
	s.dispatcher.Subscribe(lsn)
	defer s.dispatcher.Unsubscribe(lsn)

	metricActiveCount().AddWithLabel(1, map[string]string{"subject": "grant"})
	defer metricActiveCount().AddWithLabel(-1, map[string]string{"subject": "grant"})

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has replied to the client
		logger.Debug("upgrade failed", "err", err)
		return nil
	}

	if err := s.pipe(conn, lsn); err != nil {
		logger.Debug("subscription closed", "err", err)
	}
	return nil
}

// pipe forwards the listener's events to conn until either side quits.
func (s *Subscriptions) pipe(conn *websocket.Conn, lsn *listener) error {
	var goes co.Goes
	defer goes.Wait()
	defer conn.Close()

	closed := make(chan struct{})

	// the read loop handles control frames and notices the peer going away
	goes.Go(func() {
		defer close(closed)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	closeWith := func(code int, text string) error {
		msg := websocket.FormatCloseMessage(code, text)
		return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}

	for {
		select {
		case ev := <-lsn.ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(convertEvent(ev)); err != nil {
				return err
			}
		case <-lsn.lagged:
			closeWith(websocket.ClosePolicyViolation, "subscriber too slow")
			return errors.New("subscriber lagged")
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-closed:
			return nil
		case <-s.done:
			closeWith(websocket.CloseGoingAway, "server shutting down")
			return nil
		}
	}
}

// Close ends all subscriptions, the hijacked connections included.
func (s *Subscriptions) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.goes.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/grant").
		Methods(http.MethodGet).
		Name("WS /subscriptions/grant").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubjectGrant))
}
