package admission

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/TEENet-io/faucet-go/common"
)

// ValidateClientIP accepts a bare IPv4 or IPv6 address (no port, no zone).
func ValidateClientIP(ip string) error {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return fmt.Errorf("%w: %w %q", ErrInvalidRequest, ErrInvalidClientIP, ip)
	}
	if addr.Zone() != "" {
		return fmt.Errorf("%w: %w %q has a zone", ErrInvalidRequest, ErrInvalidClientIP, ip)
	}
	return nil
}

// ValidateRequest checks the synchronous part of a mint request.
// Whether the asset exists is up to the registry.
func ValidateRequest(asset, receiver, clientIP string, addresses common.AddressValidator) error {
	if strings.TrimSpace(asset) == "" || strings.TrimSpace(receiver) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrMissingField)
	}
	if err := ValidateClientIP(clientIP); err != nil {
		return err
	}
	if err := addresses.ValidateAddress(receiver); err != nil {
		return fmt.Errorf("%w: %w: %v", ErrInvalidRequest, ErrInvalidReceiver, err)
	}
	return nil
}
