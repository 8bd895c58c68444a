package hal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"thermal_guard/internal/config"
	"thermal_guard/internal/logger"
)

const (
	opcuaAppName     = "thermal_guard"
	opcuaFrameBuf    = 64
	opcuaStopTimeout = 5 * time.Second
)

type opcuaNode struct {
	pin     int
	digital bool
}

// OPCUABoard reads sensor and endstop values from a PLC through an OPC UA
// subscription and writes heater duty to output nodes.
type OPCUABoard struct {
	cfg     config.OPCUAConfig
	log     *logger.Logger
	client  *opcua.Client
	sub     *opcua.Subscription
	latest  *latest
	outputs *outputQueue
	outIDs  map[int]*ua.NodeID
	handles map[uint32]opcuaNode
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stop    sync.Once
}

// OpenOPCUA connects, subscribes to every configured input node and starts
// consuming notifications.
func OpenOPCUA(ctx context.Context, cfg config.OPCUAConfig, log *logger.Logger) (*OPCUABoard, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("opcua endpoint is required")
	}
	if len(cfg.Analog) == 0 {
		return nil, errors.New("at least one analog node must be configured")
	}
	outIDs, err := parseNodeMap(cfg.Outputs)
	if err != nil {
		return nil, err
	}

	client, err := opcua.NewClient(cfg.Endpoint, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("opcua connect: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	b := &OPCUABoard{
		cfg:     cfg,
		log:     log,
		client:  client,
		latest:  newLatest(opcuaFrameBuf, cfg.Stale),
		outIDs:  outIDs,
		handles: make(map[uint32]opcuaNode),
		cancel:  cancel,
	}

	notifyCh := make(chan *opcua.PublishNotificationData, (len(cfg.Analog)+len(cfg.Digital))*4)
	b.sub, err = client.Subscribe(ctx, &opcua.SubscriptionParameters{Interval: cfg.Interval}, notifyCh)
	if err != nil {
		cancel()
		_ = client.Close(ctx)
		return nil, fmt.Errorf("opcua subscribe: %w", err)
	}
	if err := b.monitor(ctx); err != nil {
		cancel()
		_ = b.sub.Cancel(ctx)
		_ = client.Close(ctx)
		return nil, err
	}

	b.outputs = newOutputQueue(b.writeDuties, func(err error) {
		b.log.Errorw("opcua_write_failed", "err", err)
	})
	b.wg.Add(1)
	go b.consume(runCtx, notifyCh)
	return b, nil
}

func (b *OPCUABoard) monitor(ctx context.Context) error {
	var handle uint32
	add := func(nodes map[string]string, digital bool) error {
		ids, err := parseNodeMap(nodes)
		if err != nil {
			return err
		}
		for _, pin := range sortedPins(ids) {
			handle++
			req := opcua.NewMonitoredItemCreateRequestWithDefaults(ids[pin], ua.AttributeIDValue, handle)
			res, err := b.sub.Monitor(ctx, ua.TimestampsToReturnBoth, req)
			if err != nil {
				return fmt.Errorf("monitor node %s: %w", ids[pin], err)
			}
			if len(res.Results) == 0 || res.Results[0].StatusCode != ua.StatusOK {
				return fmt.Errorf("monitor node %s failed", ids[pin])
			}
			b.handles[handle] = opcuaNode{pin: pin, digital: digital}
		}
		return nil
	}
	if err := add(b.cfg.Analog, false); err != nil {
		return err
	}
	return add(b.cfg.Digital, true)
}

func (b *OPCUABoard) consume(ctx context.Context, ch <-chan *opcua.PublishNotificationData) {
	defer b.wg.Done()
	defer close(b.latest.frames)
	for {
		select {
		case <-ctx.Done():
			return
		case notif := <-ch:
			if notif == nil {
				continue
			}
			if notif.Error != nil {
				b.log.Warnw("opcua_notification_error", "err", notif.Error)
				continue
			}
			if f, ok := b.toFrame(notif.Value); ok {
				b.latest.publish(f)
			}
		}
	}
}

func (b *OPCUABoard) toFrame(val any) (frame, bool) {
	data, ok := val.(*ua.DataChangeNotification)
	if !ok {
		return frame{}, false
	}
	f := frame{at: time.Now(), analog: map[int]float64{}, digital: map[int]bool{}}
	for _, item := range data.MonitoredItems {
		node, ok := b.handles[item.ClientHandle]
		if !ok || item.Value == nil {
			continue
		}
		v, ok := variantToFloat(item.Value.Value)
		if !ok {
			b.log.Warnw("opcua_unsupported_value", "pin", node.pin)
			continue
		}
		if node.digital {
			f.digital[node.pin] = v != 0
		} else {
			f.analog[node.pin] = v
		}
	}
	return f, len(f.analog)+len(f.digital) > 0
}

func (b *OPCUABoard) ReadAnalog(ctx context.Context, pin int) (float64, error) {
	return b.latest.readAnalog(ctx, pin)
}

func (b *OPCUABoard) ReadDigital(ctx context.Context, pin int) (bool, error) {
	return b.latest.readDigital(ctx, pin)
}

func (b *OPCUABoard) SetPWM(pin int, duty float64) error {
	if _, ok := b.outIDs[pin]; !ok {
		return fmt.Errorf("%w: pwm %d", ErrUnknownPin, pin)
	}
	return b.outputs.set(pin, duty)
}

func (b *OPCUABoard) writeDuties(batch map[int]float64) error {
	req := &ua.WriteRequest{}
	for pin, duty := range batch {
		v, err := ua.NewVariant(duty)
		if err != nil {
			return err
		}
		req.NodesToWrite = append(req.NodesToWrite, &ua.WriteValue{
			NodeID:      b.outIDs[pin],
			AttributeID: ua.AttributeIDValue,
			Value: &ua.DataValue{
				EncodingMask: ua.DataValueValue,
				Value:        v,
			},
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), opcuaStopTimeout)
	defer cancel()
	res, err := b.client.Write(ctx, req)
	if err != nil {
		return fmt.Errorf("opcua write: %w", err)
	}
	for i, code := range res.Results {
		if code != ua.StatusOK {
			return fmt.Errorf("opcua write %s: %s", req.NodesToWrite[i].NodeID, code)
		}
	}
	return nil
}

// Close flushes outputs, cancels the subscription and closes the session.
func (b *OPCUABoard) Close() error {
	var err error
	b.stop.Do(func() {
		b.outputs.close()
		b.cancel()
		ctx, cancel := context.WithTimeout(context.Background(), opcuaStopTimeout)
		defer cancel()
		if e := b.sub.Cancel(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
		if e := b.client.Close(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
		b.wg.Wait()
	})
	return err
}

func clientOptions(cfg config.OPCUAConfig) []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(cfg.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(cfg.SecurityPolicy)),
		opcua.ApplicationName(opcuaAppName),
		opcua.AutoReconnect(true),
	}
	if cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(cfg.Username, cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func parseNodeMap(nodes map[string]string) (map[int]*ua.NodeID, error) {
	out := make(map[int]*ua.NodeID, len(nodes))
	for pinStr, id := range nodes {
		pin, err := strconv.Atoi(pinStr)
		if err != nil {
			return nil, fmt.Errorf("opcua pin %q: %w", pinStr, err)
		}
		nodeID, err := ua.ParseNodeID(id)
		if err != nil {
			return nil, fmt.Errorf("parse node id %q: %w", id, err)
		}
		out[pin] = nodeID
	}
	return out, nil
}

func sortedPins(m map[int]*ua.NodeID) []int {
	pins := make([]int, 0, len(m))
	for pin := range m {
		pins = append(pins, pin)
	}
	sort.Ints(pins)
	return pins
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.Value().(type) {
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	}
	return 0, false
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	}
	return "None"
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}
