package ide

// SMK-512 register addresses. The task file registers run downwards from
// the data register.
const (
	SmkDataAddress          = 0177756
	SmkStatusAddress        = 0177740
	SmkDeviceControlAddress = 0177736
)

// SmkController maps a Controller into the I/O page the way the SMK-512
// adapter does. The adapter's data lines are inverted in both directions.
type SmkController struct {
	*Controller
}

// NewSmkController returns the adapter around c.
func NewSmkController(c *Controller) *SmkController {
	return &SmkController{Controller: c}
}

func smkRegister(address uint16) int {
	return int(SmkDataAddress-address&^1) / 2
}

func (s *SmkController) Addresses() []uint16 {
	addrs := []uint16{SmkDeviceControlAddress}
	for a := uint16(SmkStatusAddress); a <= SmkDataAddress; a += 2 {
		addrs = append(addrs, a)
	}
	return addrs
}

func (s *SmkController) Init(cpuTime int64, isHardwareReset bool) {
	if isHardwareReset {
		s.Reset()
	}
}

func (s *SmkController) Read(cpuTime int64, address uint16) (uint16, bool) {
	var v uint16
	if address&^1 == SmkDeviceControlAddress {
		v = s.ReadAltStatus()
	} else {
		v = s.ReadRegister(cpuTime, smkRegister(address))
	}
	return ^v, true
}

func (s *SmkController) Write(cpuTime int64, isByteMode bool, address uint16, value uint16) bool {
	v := ^value
	if isByteMode {
		v &= 0377
	}
	if address&^1 == SmkDeviceControlAddress {
		s.WriteDeviceControl(v)
	} else {
		s.WriteRegister(cpuTime, smkRegister(address), v)
	}
	return true
}
