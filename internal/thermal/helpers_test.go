package thermal

import (
	"context"
	"sync"
	"time"

	"thermal_guard/internal/models"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var testADC = ADCSpec{Max: 1023, VRef: 5, PullupOhms: 4700}

func bedChannel() models.HeaterChannel {
	return models.HeaterChannel{
		ID:                    models.ChannelBed,
		SensorType:            SensorEPCOS100k,
		AnalogPin:             0,
		PWMPin:                0,
		MinTempC:              0,
		MaxTempC:              100,
		ProtectionPeriod:      20 * time.Second,
		ProtectionHysteresisC: 2,
		ProtectionEnabled:     true,
		HeatingGainC:          2,
		Control: models.ControlSettings{
			Kind:     models.ControlBangBang,
			MaxDelta: 2,
			MaxPower: 1,
		},
	}
}

func hotendChannel() models.HeaterChannel {
	return models.HeaterChannel{
		ID:                    models.HotendChannel(0),
		SensorType:            SensorEPCOS100k,
		AnalogPin:             1,
		PWMPin:                1,
		MinTempC:              0,
		MaxTempC:              250,
		ProtectionPeriod:      40 * time.Second,
		ProtectionHysteresisC: 4,
		ProtectionEnabled:     true,
		HeatingGainC:          2,
		Control: models.ControlSettings{
			Kind:     models.ControlPID,
			Kp:       22.2,
			Ki:       1.08,
			Kd:       114,
			MaxPower: 1,
		},
	}
}

func sample(id models.ChannelID, tempC float64, at time.Time) models.ThermalSample {
	return models.ThermalSample{Channel: id, TempC: tempC, At: at}
}

// fakeBoard serves temperatures encoded with the test ADC and records
// heater duty.
type fakeBoard struct {
	mu    sync.Mutex
	conv  Converter
	temps map[int]float64
	errs  map[int]error
	hang  map[int]bool
	duty  map[int]float64
}

func newFakeBoard() *fakeBoard {
	conv, err := NewConverter(SensorEPCOS100k, testADC)
	if err != nil {
		panic(err)
	}
	return &fakeBoard{
		conv:  conv,
		temps: map[int]float64{},
		errs:  map[int]error{},
		hang:  map[int]bool{},
		duty:  map[int]float64{},
	}
}

func (b *fakeBoard) setTemp(pin int, c float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.temps[pin] = c
}

func (b *fakeBoard) setErr(pin int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[pin] = err
}

func (b *fakeBoard) setHang(pin int, hang bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hang[pin] = hang
}

func (b *fakeBoard) dutyOf(pin int) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duty[pin]
}

func (b *fakeBoard) ReadAnalog(ctx context.Context, pin int) (float64, error) {
	b.mu.Lock()
	hang, err, temp := b.hang[pin], b.errs[pin], b.temps[pin]
	b.mu.Unlock()
	if hang {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if err != nil {
		return 0, err
	}
	return b.conv.Raw(temp), nil
}

func (b *fakeBoard) SetPWM(pin int, duty float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.duty[pin] = duty
	return nil
}

// rawBoard returns a fixed raw count, e.g. an open-circuit reading.
type rawBoard struct {
	*fakeBoard
	raw map[int]float64
}

func (b *rawBoard) ReadAnalog(ctx context.Context, pin int) (float64, error) {
	if r, ok := b.raw[pin]; ok {
		return r, nil
	}
	return b.fakeBoard.ReadAnalog(ctx, pin)
}
