package viz

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
)

type ImageContainer struct {
	name string
	data []byte
}

// Producer renders a diagnostic image of some tap in the pipeline.
type Producer interface {
	Name() string
	GetImage() *ImageContainer
	AddPlotOption(opt PlotOptions)
}

// Server exposes registered producers over HTTP as auto-refreshing PNGs.
// Images are only re-rendered for buckets that were viewed recently.
type Server struct {
	images          map[string]map[string]*ImageContainer
	producerBuckets map[string]map[string]Producer
	lastViewed      map[string]time.Time
	mu              sync.RWMutex
	port            int
	srv             *http.Server
	updateInterval  time.Duration
	enabled         bool
}

func NewServer(port int, updateInterval time.Duration) *Server {
	return &Server{
		images:          make(map[string]map[string]*ImageContainer),
		producerBuckets: make(map[string]map[string]Producer),
		lastViewed:      make(map[string]time.Time),
		port:            port,
		srv:             &http.Server{Addr: fmt.Sprintf(":%d", port)},
		updateInterval:  updateInterval,
		enabled:         true,
	}
}

func (s *Server) Enable(enable bool) {
	s.mu.Lock()
	s.enabled = enable
	s.mu.Unlock()
}

func (s *Server) Register(bucket string, p Producer) {
	s.mu.Lock()
	b, ok := s.producerBuckets[bucket]
	if !ok {
		b = make(map[string]Producer)
		s.producerBuckets[bucket] = b
	}
	b[p.Name()] = p
	s.mu.Unlock()
}

func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

func (s *Server) render() {
	s.mu.Lock()
	buckets := s.producerBuckets
	s.mu.Unlock()

	var wg sync.WaitGroup
	for bucketName, bucket := range buckets {
		s.mu.RLock()
		lastViewed := s.lastViewed[bucketName]
		s.mu.RUnlock()
		if time.Since(lastViewed) > time.Second {
			continue
		}
		for _, producer := range bucket {
			wg.Add(1)
			go func(bucket string, p Producer) {
				defer wg.Done()

				s.mu.Lock()
				defer s.mu.Unlock()

				img := p.GetImage()
				if img == nil {
					return
				}
				mb, ok := s.images[bucket]
				if !ok {
					mb = make(map[string]*ImageContainer)
					s.images[bucket] = mb
				}
				mb[img.name] = img
			}(bucketName, producer)
		}
	}
	wg.Wait()
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.updateInterval):
				if !s.enabled {
					continue
				}
				s.render()
			}
		}
	}()

	handler := httprouter.New()
	handler.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s.mu.RLock()
		var key string
		for name := range s.producerBuckets {
			key = name
			break
		}
		s.mu.RUnlock()

		w.Header().Set("Location", fmt.Sprintf("/view/%s", key))
		w.WriteHeader(http.StatusFound)
	})

	handler.GET("/view/:bucket", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		bucket := params.ByName("bucket")

		s.mu.Lock()
		itemsForBucket, ok := s.producerBuckets[bucket]
		if ok {
			s.lastViewed[bucket] = time.Now()
		}
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		// give the render loop one pass so fresh taps have images
		time.Sleep(s.updateInterval)

		s.mu.RLock()
		defer s.mu.RUnlock()

		w.Header().Add("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>uartrx traces</title>`))
		w.Write([]byte(fmt.Sprintf(`
		<script type="text/javascript">
			window.onload = function() {
				var imgs = document.getElementsByClassName('trace');
				for (var i = 0; i < imgs.length; i++) {
					setInterval(function(image) {
						image.src = image.src.split("?")[0] + "?" + new Date().getTime();
					}, %d, imgs[i]);
				}
			}
		</script></head>`, s.updateInterval.Milliseconds())))
		w.Write([]byte(`<body style='background-color: black'>`))

		keys := make([]string, 0, len(itemsForBucket))
		for key := range itemsForBucket {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		w.Write([]byte(`<div style="display: flex; flex-direction: row; flex-wrap: wrap">`))
		for _, key := range keys {
			w.Write([]byte(fmt.Sprintf(`<div><img class="trace" src="/img/%s/%s?%d" /></div>`,
				bucket, key, time.Now().UnixMicro())))
		}
		w.Write([]byte(`</div></body></html>`))
	})

	handler.GET("/img/:bucket/:img", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		bucketName := params.ByName("bucket")
		imgName := params.ByName("img")

		s.mu.Lock()
		s.lastViewed[bucketName] = time.Now()
		s.mu.Unlock()

		s.mu.RLock()
		var img *ImageContainer
		if bucket, ok := s.images[bucketName]; ok {
			img = bucket[imgName]
		}
		s.mu.RUnlock()

		if img == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Write(img.data)
	})

	s.srv.Handler = handler
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
