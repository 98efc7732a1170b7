//go:build linux

package process_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tonearm/internal/process"
)

// childScript starts a long-running child, records its pid and waits on it.
func childScript(pidFile string) string {
	return fmt.Sprintf(`sleep 30 &
echo $! > %q
echo child
wait`, pidFile)
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// processGone reports whether pid has exited, counting an unreaped zombie
// as exited.
func processGone(pid int) bool {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return os.IsNotExist(err)
	}
	stat := string(data)
	end := strings.LastIndexByte(stat, ')')
	if end < 0 || end+2 >= len(stat) {
		return false
	}
	return stat[end+2] == 'Z'
}

func (s *RunnerSuite) assertChildKilled(pidFile string) {
	pid, err := readPID(pidFile)
	s.Require().NoError(err)
	s.Eventually(func() bool { return processGone(pid) }, 2*time.Second, 20*time.Millisecond,
		"child %d still running", pid)
}

func (s *RunnerSuite) TestAbortKillsToolChildren() {
	pidFile := filepath.Join(s.dir, "child.pid")
	abort := &process.AbortFlag{}
	sink := process.SinkFuncs{Message: func(line string) {
		if line == "child" {
			abort.Set()
		}
	}}

	res := s.run(context.Background(), childScript(pidFile), percentPattern, nil, abort, sink)

	s.Equal(process.Aborted, res.Outcome)
	s.assertChildKilled(pidFile)
}

func (s *RunnerSuite) TestTimeoutKillsToolChildren() {
	s.runner.Timeout = 200 * time.Millisecond
	pidFile := filepath.Join(s.dir, "child.pid")

	res := s.run(context.Background(), childScript(pidFile), percentPattern, nil, nil, nil)

	s.Equal(process.Timeout, res.Outcome)
	s.assertChildKilled(pidFile)
}
