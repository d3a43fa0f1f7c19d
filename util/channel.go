package util

import (
	"bufio"
	"io"

	"github.com/goware/channel"
	"github.com/goware/logger"
)

// pipeCapacity bounds the lines queued for a reader that stopped reading.
const pipeCapacity = 5000

// PipeLines reads r line by line into the returned channel without ever
// blocking the writer of r on a slow reader. Lines queue in an unbounded
// channel, which warns past bufferLimitWarning queued lines. The channel
// closes at EOF once drained.
func PipeLines(r io.Reader, log logger.Logger, bufferLimitWarning int) <-chan string {
	ch := channel.NewUnboundedChan[string](bufferLimitWarning, pipeCapacity)

	go func() {
		defer ch.Close()
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch.Send(sc.Text())
		}
		if err := sc.Err(); err != nil {
			log.Warnf("pipe: %v", err)
		}
	}()

	return ch.ReadChannel()
}
