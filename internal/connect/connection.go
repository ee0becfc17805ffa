package connect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// supabase init
func InitSupabase(url, key string) (*supabase.Client, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase: %w", err)
	}
	return client, nil
}

// mongo init

// MongoDBConnect dials uri, substituting a "<password>" placeholder with
// password, and pings the deployment before returning.
func MongoDBConnect(ctx context.Context, uri, password string) (*mongo.Client, error) {
	fullUri := strings.Replace(uri, "<password>", password, 1)

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	clientOptions := options.Client().ApplyURI(fullUri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func MongoDBDisconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}

func CloudinaryCredentials(cloudName, apiKey, apiSecret string) (*cloudinary.Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(
		cloudName,
		apiKey,
		apiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return cld, nil
}
