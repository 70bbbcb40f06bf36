// Command call is the call-pad CLI (spec §6, §8): it opens one connection
// to the controller, sends a single CALL, prints the reply, and exits.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/link"
	"github.com/mngv7/elevator-control-system/internal/protocol"
)

const connectTimeout = 2 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: call <src> <dst>")
		return 1
	}

	src, err := floor.Parse(args[0])
	if err != nil {
		fmt.Println("Invalid floor(s) specified.")
		return 1
	}
	dst, err := floor.Parse(args[1])
	if err != nil {
		fmt.Println("Invalid floor(s) specified.")
		return 1
	}
	if src.Equal(dst) {
		fmt.Println("You are already on that floor!")
		return 1
	}

	conn, err := net.DialTimeout("tcp", link.Addr, connectTimeout)
	if err != nil {
		fmt.Println("Unable to connect to elevator system.")
		return 1
	}
	defer conn.Close()

	ch := protocol.NewChannel(conn)
	call := protocol.CallMsg{Src: src, Dst: dst}
	if err := ch.Send(call.String()); err != nil {
		fmt.Println("Unable to connect to elevator system.")
		return 1
	}

	reply, err := ch.Recv()
	if err != nil {
		fmt.Println("Unable to connect to elevator system.")
		return 1
	}

	switch {
	case reply == protocol.ReplyUnavailable:
		fmt.Println("Sorry, no car is available to take this request.")
		return 1
	default:
		if name, ok := protocol.ParseCarReply(reply); ok {
			fmt.Printf("Car %s is arriving.\n", name)
			return 0
		}
		fmt.Printf("Unexpected response: %s\n", reply)
		return 1
	}
}
