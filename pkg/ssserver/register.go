package ssserver

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/langos-dfs/langos/internal/wire"
)

// RegisterDialTimeout bounds the one-shot REGISTER_SS handshake against the
// name server at startup.
const RegisterDialTimeout = 10 * time.Second

// RegisterWithNS dials nsAddr and sends REGISTER_SS, advertising the
// IP/port clients and the NS should route to and the files already sitting
// in this SS's root directory (ssengine.Engine.ListFiles) so a restarted SS
// reattaches to its existing catalog rows instead of orphaning them.
// Grounded on nsserver/session.go's handleRegisterSS, the counterpart this
// dials into.
func RegisterWithNS(nsAddr, advertiseIP string, advertisePort int, files []string) error {
	conn, err := net.DialTimeout("tcp", nsAddr, RegisterDialTimeout)
	if err != nil {
		return fmt.Errorf("ssserver: dial name server %s: %w", nsAddr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(RegisterDialTimeout)); err != nil {
		return err
	}

	fileCSV := strings.Join(files, ",")
	if err := wire.WriteRecord(conn, wire.VerbRegisterSS, advertiseIP, strconv.Itoa(advertisePort), fileCSV); err != nil {
		return fmt.Errorf("ssserver: send REGISTER_SS: %w", err)
	}

	reply, err := wire.ReadUntilMarker(bufio.NewReader(conn), wire.NSEndMarker)
	if err != nil {
		return fmt.Errorf("ssserver: read REGISTER_SS ack: %w", err)
	}
	if !strings.Contains(reply, wire.AckSSReg) {
		return fmt.Errorf("ssserver: name server rejected REGISTER_SS: %s", reply)
	}
	return nil
}
