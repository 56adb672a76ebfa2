package validate

import (
	"context"
	"net"
	"net/smtp"
	"net/textproto"
	"time"
)

// smtpProber is the live RCPT prober: connect to the MX on port 25, EHLO,
// MAIL FROM, RCPT TO, QUIT. No DATA is ever sent.
type smtpProber struct {
	timeout time.Duration
}

// Probe returns the server's RCPT reply code. A protocol-level rejection is
// a result (code, nil); transport failures are errors and the caller treats
// them as inconclusive.
func (p *smtpProber) Probe(ctx context.Context, mxHost, from, to string) (int, error) {
	timeout := p.timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(mxHost, "25"))
	if err != nil {
		return 0, err
	}
	// One deadline for the whole handshake.
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(timeout))
	}

	client, err := smtp.NewClient(conn, mxHost)
	if err != nil {
		conn.Close()
		return 0, err
	}
	defer client.Close()

	if err := client.Hello("immoleads.example"); err != nil {
		return 0, err
	}
	if err := client.Mail(from); err != nil {
		return rcptCode(err), nil
	}
	if err := client.Rcpt(to); err != nil {
		if code := rcptCode(err); code > 0 {
			client.Quit()
			return code, nil
		}
		return 0, err
	}
	client.Quit()
	return 250, nil
}

// rcptCode extracts the SMTP reply code from a textproto error, 0 when the
// failure was not a protocol reply.
func rcptCode(err error) int {
	if tpErr, ok := err.(*textproto.Error); ok {
		return tpErr.Code
	}
	return 0
}
