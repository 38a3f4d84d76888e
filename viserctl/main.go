package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"gopkg.in/yaml.v3"

	"github.com/GinaGreen4586515/viser"
)

const ViserCtlVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

type Config struct {
	ConnectUrl             string `yaml:"connect_url"`
	Port                   int    `yaml:"port"`
	FlushIntervalMillis    int    `yaml:"flush_interval_ms"`
	ReconnectTimeoutMillis int    `yaml:"reconnect_timeout_ms"`
}

func DefaultConfig() *Config {
	return &Config{
		ConnectUrl:             "ws://127.0.0.1:8765",
		Port:                   8765,
		FlushIntervalMillis:    50,
		ReconnectTimeoutMillis: 1000,
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, config); err != nil {
		return nil, err
	}
	return config, nil
}

func main() {
	usage := `Viser scene mirror control.

Usage:
    viserctl watch [--config=<config>] [--connect_url=<connect_url>]
        [--flush_interval=<ms>] [--reconnect_timeout=<ms>]
    viserctl serve [--config=<config>] [--port=<port>]

    viserctl -h | --help
    viserctl --version

Options:
    -h --help                    Show this screen.
    --version                    Show version.
    --config=<config>            Yaml config file.
    --connect_url=<connect_url>  Scene server url.
    --flush_interval=<ms>        Scene flush interval in milliseconds.
    --reconnect_timeout=<ms>     Fixed reconnect delay in milliseconds.
    --port=<port>                Demo server listen port.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], ViserCtlVersion)
	if err != nil {
		panic(err)
	}

	configPath, _ := opts.String("--config")
	config, err := LoadConfig(configPath)
	if err != nil {
		Err.Fatalf("Could not load config (%s).", err)
	}

	if watch_, _ := opts.Bool("watch"); watch_ {
		watch(opts, config)
	} else if serve_, _ := opts.Bool("serve"); serve_ {
		serve(opts, config)
	}
}

// mirror a remote scene into a memory store and print each mutation
func watch(opts docopt.Opts, config *Config) {
	connectUrl := config.ConnectUrl
	if urlOpt, err := opts.String("--connect_url"); err == nil && urlOpt != "" {
		connectUrl = urlOpt
	}
	if ms, err := opts.Int("--flush_interval"); err == nil && 0 < ms {
		config.FlushIntervalMillis = ms
	}
	if ms, err := opts.Int("--reconnect_timeout"); err == nil && 0 < ms {
		config.ReconnectTimeoutMillis = ms
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &printStore{
		inner: viser.NewMemorySceneStore(),
	}

	settings := viser.DefaultSceneClientSettings()
	settings.FlushInterval = time.Duration(config.FlushIntervalMillis) * time.Millisecond
	settings.ReconnectTimeout = time.Duration(config.ReconnectTimeoutMillis) * time.Millisecond

	client := viser.NewSceneClient(cancelCtx, connectUrl, store, settings)
	defer client.Close()

	removeCallback := client.AddConnectionChangeCallback(func(connected bool) {
		if connected {
			Out.Printf("connected %s", connectUrl)
		} else {
			Out.Printf("disconnected")
		}
	})
	defer removeCallback()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	Out.Printf("exit with %d nodes", store.inner.NodeCount())
}

type printStore struct {
	inner *viser.MemorySceneStore
}

func (self *printStore) AddNode(name string, create viser.NodeFactory) {
	self.inner.AddNode(name, create)
	node, _ := self.inner.Node(name)
	Out.Printf("add %s %T", name, node)
}

func (self *printStore) RemoveNode(name string) {
	self.inner.RemoveNode(name)
	Out.Printf("remove %s", name)
}

func (self *printStore) ResetAll() {
	self.inner.ResetAll()
	Out.Printf("reset")
}

func (self *printStore) SetNodeVisibility(name string, visible bool) {
	self.inner.SetNodeVisibility(name, visible)
	Out.Printf("visibility %s=%t", name, visible)
}

func (self *printStore) SetBackground(texture *viser.Texture) {
	self.inner.SetBackground(texture)
	Out.Printf("background %s", texture.MediaType)
}

func serve(opts docopt.Opts, config *Config) {
	port := config.Port
	if portOpt, err := opts.Int("--port"); err == nil && 0 < portOpt {
		port = portOpt
	}

	server := newDemoServer(fmt.Sprintf("127.0.0.1:%d", port))
	Out.Printf("serve ws://%s", server.address)
	if err := server.ListenAndServe(); err != nil {
		Err.Fatalf("Serve error (%s).", err)
	}
}
