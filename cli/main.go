// Package main provides a terminal viewer for algostream runs.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Message types
const (
	TypeTrace       = "TRACE"
	TypeExplanation = "EXPLANATION"
	TypeEnd         = "END"
	TypeError       = "ERROR"
	TypeSignal      = "SIGNAL"
	TypeSeek        = "SEEK"
)

// Envelope is the wire shape of every message.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Explanation is the payload of EXPLANATION messages.
type Explanation struct {
	Mode               string `json:"mode"`
	Explanation        string `json:"explanation"`
	ShortHint          string `json:"short_hint"`
	ConfidenceEstimate string `json:"confidence_estimate"`
	FollowupQuestion   string `json:"followup_question"`
}

// Client is a viewer attached to one run.
type Client struct {
	conn *websocket.Conn
	step atomic.Int64
	done chan struct{}
}

// CreateRun posts a run and returns its id.
func CreateRun(baseURL, algorithmID string, array []int) (string, error) {
	body, err := json.Marshal(map[string]interface{}{"algorithmId": algorithmID, "array": array})
	if err != nil {
		return "", err
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	resp, err := httpClient.Post(baseURL+"/api/run", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		RunID string `json:"runId"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode create run response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create run failed (%d): %s", resp.StatusCode, out.Error)
	}
	return out.RunID, nil
}

// NewClient creates a new client and attaches to the run's stream.
func NewClient(baseURL, runID string, speed float64, fromStep int) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse addr: %w", err)
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	q := url.Values{}
	q.Set("runId", runID)
	q.Set("speed", strconv.FormatFloat(speed, 'f', -1, 64))
	q.Set("fromStep", strconv.Itoa(fromStep))
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn: conn,
		done: make(chan struct{}),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Step returns the step of the last TRACE received.
func (c *Client) Step() int {
	return int(c.step.Load())
}

// SendSignal reports a viewer interaction for a step.
func (c *Client) SendSignal(data map[string]interface{}) error {
	return c.conn.WriteJSON(map[string]interface{}{"type": TypeSignal, "data": data})
}

// SendSeek moves the advisory cursor.
func (c *Client) SendSeek(step int) error {
	return c.conn.WriteJSON(map[string]interface{}{"type": TypeSeek, "data": map[string]int{"stepIndex": step}})
}

// ReadMessages reads and prints messages until END, ERROR or close.
func (c *Client) ReadMessages() {
	defer close(c.done)
	for {
		var msg Envelope
		if err := c.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Printf("Read error: %v", err)
			}
			return
		}

		switch msg.Type {
		case TypeTrace:
			var frame struct {
				StepIndex int    `json:"stepIndex"`
				Array     []int  `json:"array"`
				Action    string `json:"action"`
			}
			json.Unmarshal(msg.Data, &frame)
			c.step.Store(int64(frame.StepIndex))
			fmt.Printf("\n[step %d] %-8s %v\n", frame.StepIndex, frame.Action, frame.Array)
		case TypeExplanation:
			var e Explanation
			json.Unmarshal(msg.Data, &e)
			fmt.Printf("  (%s, %s confidence) %s\n", e.Mode, e.ConfidenceEstimate, e.Explanation)
			if e.ShortHint != "" {
				fmt.Printf("  hint: %s\n", e.ShortHint)
			}
			if e.FollowupQuestion != "" {
				fmt.Printf("  ? %s\n", e.FollowupQuestion)
			}
		case TypeEnd, TypeError:
			var m struct {
				Message string `json:"message"`
			}
			json.Unmarshal(msg.Data, &m)
			fmt.Printf("\n[%s] %s\n", msg.Type, m.Message)
			return
		default:
			fmt.Printf("\n[%s] %s\n", msg.Type, string(msg.Data))
		}
	}
}

func parseArray(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid array element %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// handleCommand maps one input line to a viewer message.
func (c *Client) handleCommand(input string) error {
	fields := strings.Fields(input)
	step := c.Step()

	switch fields[0] {
	case "/pause":
		seconds := 1.0
		if len(fields) > 1 {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return fmt.Errorf("invalid pause duration %q", fields[1])
			}
			seconds = v
		}
		return c.SendSignal(map[string]interface{}{"stepIndex": step, "kind": "pause", "pauseDuration": seconds})
	case "/replay":
		return c.SendSignal(map[string]interface{}{"stepIndex": step, "kind": "replay"})
	case "/hover", "/scroll":
		if len(fields) < 2 {
			return fmt.Errorf("usage: %s <n>", fields[0])
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid value %q", fields[1])
		}
		if fields[0] == "/hover" {
			return c.SendSignal(map[string]interface{}{"stepIndex": step, "kind": "hover", "hoverIndex": n})
		}
		return c.SendSignal(map[string]interface{}{"stepIndex": step, "kind": "scroll", "scrollDepth": n})
	case "/seek":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /seek <step>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid step %q", fields[1])
		}
		return c.SendSeek(n)
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "Relay base address")
	algorithmID := flag.String("algorithm", "bubble_sort", "Algorithm to trace")
	arrayFlag := flag.String("array", "5,2,8,1,9", "Comma separated input array")
	runID := flag.String("run", "", "Attach to an existing run instead of creating one")
	speed := flag.Float64("speed", 1.0, "Playback speed multiplier")
	fromStep := flag.Int("from", 0, "Step to start streaming from")
	flag.Parse()

	log.SetFlags(log.Ltime)

	id := *runID
	if id == "" {
		array, err := parseArray(*arrayFlag)
		if err != nil {
			log.Fatalf("Invalid -array: %v", err)
		}
		id, err = CreateRun(*addr, *algorithmID, array)
		if err != nil {
			log.Fatalf("Failed to create run: %v", err)
		}
		fmt.Printf("Created run %s\n", id)
	}

	client, err := NewClient(*addr, id, *speed, *fromStep)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	fmt.Println("Attached. Commands: /pause [s], /replay, /hover <i>, /scroll <n>, /seek <step>, /quit")

	go client.ReadMessages()

	// Handle Ctrl+C
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	for {
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		case <-client.done:
			return
		case input := <-lines:
			if input == "" {
				continue
			}
			if input == "/quit" {
				fmt.Println("Bye!")
				return
			}
			if err := client.handleCommand(input); err != nil {
				log.Printf("Send error: %v", err)
			}
		}
	}
}
