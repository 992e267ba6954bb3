// canmon tails an adapter's console device and republishes every
// received CAN frame to an MQTT broker as JSON.
package main

import (
	"bufio"
	"flag"
	"os"
	"strings"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

var (
	device = flag.String("device", "/dev/ttyACM0", "adapter console device")
	broker = flag.String("broker", "tcp://localhost:1883", "MQTT broker address")
	topic  = flag.String("topic", "canbridge/rx", "topic prefix for republished frames")
)

func clientID() string {
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return "canmon"
	}
	return "canmon-" + id
}

func main() {
	flag.Parse()
	defer glog.Flush()

	opts := paho.NewClientOptions().
		AddBroker(*broker).
		SetClientID(clientID()).
		SetAutoReconnect(true).
		SetCleanSession(true)
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		glog.Fatalf("connect %s: %v", *broker, token.Error())
	}
	defer client.Disconnect(0)
	glog.Infof("connected to %s", *broker)

	dev, err := os.Open(*device)
	if err != nil {
		glog.Fatalf("open %s: %v", *device, err)
	}
	defer dev.Close()

	sc := bufio.NewScanner(dev)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "rcv ") {
			glog.V(2).Infof("skip %q", line)
			continue
		}
		payload, frame, err := encodeFrame(line)
		if err != nil {
			glog.Warningf("bad line %q: %v", line, err)
			continue
		}
		client.Publish(topicFor(*topic, frame), 0, false, payload)
		glog.V(1).Infof("PUB %s %s", topicFor(*topic, frame), payload)
	}
	if err := sc.Err(); err != nil {
		glog.Fatalf("read %s: %v", *device, err)
	}
}
