package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tklauser/go-sysconf"
)

// runStats measures elapsed and CPU time of a program run (-stats).
type runStats struct {
	start        time.Time
	utime, stime int64 // clock ticks
}

func newRunStats() *runStats {
	s := &runStats{start: time.Now()}
	s.utime, s.stime, _ = cpuTicks()
	return s
}

// cpuTicks reads user and system time of this process from /proc.
func cpuTicks() (int64, int64, error) {
	contents, err := os.ReadFile("/proc/self/stat")
	if err != nil {
		return 0, 0, err
	}
	// the command name in field 2 may contain blanks
	text := string(contents)
	if i := strings.LastIndexByte(text, ')'); i >= 0 {
		text = text[i+1:]
	}
	fields := strings.Fields(text)
	if len(fields) < 13 {
		return 0, 0, fmt.Errorf("short /proc/self/stat")
	}
	// fields 14 and 15 of the full line
	utime, err := strconv.ParseInt(fields[11], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	stime, err := strconv.ParseInt(fields[12], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return utime, stime, nil
}

func formatCPUTime(d time.Duration) string {
	t := int64(d / time.Millisecond)
	h, t := t/3600000, t%3600000
	m, t := t/60000, t%60000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, t/1000, t%1000)
}

// report writes the usage since newRunStats.
func (s *runStats) report(w io.Writer) {
	elapsed := time.Since(s.start)
	utime, stime, err := cpuTicks()
	clktck, cerr := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil || cerr != nil || clktck <= 0 {
		fmt.Fprintf(w, "CPU Usage: elapsed = %s\n", formatCPUTime(elapsed))
		return
	}
	ticks := func(n int64) time.Duration { return time.Duration(n) * time.Second / time.Duration(clktck) }
	fmt.Fprintf(w, "CPU Usage: elapsed = %s / user = %s / system = %s\n",
		formatCPUTime(elapsed), formatCPUTime(ticks(utime-s.utime)), formatCPUTime(ticks(stime-s.stime)))
}
