package model

import "fmt"

// Server owns the predictor loaded at startup. It is never reassigned, so
// handlers may share it without locking.
type Server struct {
	predictor Predictor
	Format    string
	Path      string
}

func NewServer(opts Options) (*Server, error) {
	format, err := ResolveFormat(opts.Path, opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	predictor, err := Load(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", opts.Path, err)
	}

	return &Server{
		predictor: predictor,
		Format:    format,
		Path:      opts.Path,
	}, nil
}

// Predict classifies one feature vector.
func (s *Server) Predict(features []float64) (*PredictionResponse, error) {
	label, err := s.predictor.Predict(features)
	if err != nil {
		return nil, err
	}
	return &PredictionResponse{Prediction: label}, nil
}

func (s *Server) NumFeatures() int { return s.predictor.NumFeatures() }

func (s *Server) Classes() []int { return s.predictor.Classes() }

func (s *Server) Close() {
	if c, ok := s.predictor.(closer); ok {
		c.Close()
	}
}
