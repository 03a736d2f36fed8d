// Command ws_client is a terminal listener for the session channel. It
// prints every event it receives and can fire a start or stop command on
// connect, which makes it handy for eyeballing emission behavior:
//
//	ws_client -start books -interval 500 -duration 10000 -errors 20
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data"`
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	start := flag.String("start", "", "start this stream after connecting (books or issues)")
	interval := flag.Int64("interval", 0, "emission interval in ms, with -start")
	duration := flag.Int64("duration", 0, "stream duration in ms, with -start")
	errorRate := flag.Float64("errors", 0, "error rate percent, with -start")
	duplicateRate := flag.Float64("duplicates", 0, "duplicate rate percent, with -start")
	stop := flag.String("stop", "", "stop this stream after connecting")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	url := fmt.Sprintf("ws://%s/ws", *addr)
	log.Printf("connecting to %s", url)

	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	if *start != "" {
		data := map[string]any{"streamName": *start}
		if *interval > 0 {
			data["interval"] = *interval
		}
		if *duration > 0 {
			data["duration"] = *duration
		}
		if *errorRate > 0 {
			data["errorRate"] = *errorRate
		}
		if *duplicateRate > 0 {
			data["duplicateRate"] = *duplicateRate
		}
		send(c, "start-stream", data)
	}
	if *stop != "" {
		send(c, "stop-stream", *stop)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("read error: %v", err)
				}
				return
			}
			var env envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				log.Printf("<- %s", raw)
				continue
			}
			log.Printf("<- %-16s %s", env.Event, env.Data)
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("interrupt")
			err := c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("write close:", err)
				return
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}

func send(c *websocket.Conn, event string, data any) {
	payload, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		log.Println("encode:", err)
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Println("write:", err)
		return
	}
	log.Printf("-> %s", payload)
}
