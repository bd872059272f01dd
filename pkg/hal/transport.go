package hal

// Transport moves raw bytes to and from devices on one bus. Both calls
// block until the bus transaction completes or fails. Timeouts and retries,
// if any, are the transport's business. The buffers are reused by the
// caller and must not be retained after a call returns.
type Transport interface {
	// Transact writes w to the device at addr and then reads exactly len(r)
	// bytes into r, as one combined transaction.
	Transact(addr BusAddress, w []byte, r []byte) error

	// Write sends p to the device at addr.
	Write(addr BusAddress, p []byte) error
}
