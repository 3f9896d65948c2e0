package main

import (
	"camrental/internal/repository"
	"camrental/internal/service"
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"camrental/internal/api"
	"camrental/internal/queue"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
)

func main() {
	godotenv.Load()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	cache, err := repository.OpenLocalCache(dataDir)
	if err != nil {
		log.Fatalf("Failed to open local cache: %v", err)
	}
	defer cache.Close()

	// The Postgres store of record is optional. Without it the service runs
	// on the local cache alone.
	var remote repository.RemoteStore
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		db, err := sql.Open("postgres", dbURL)
		if err != nil {
			log.Fatalf("Failed to open DB: %v", err)
		}
		defer db.Close()
		pg := repository.NewPostgresStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout())
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Printf("Could not ensure remote schema: %v", err)
		}
		cancel()
		remote = pg
	} else {
		log.Println("DATABASE_URL not set, running local-only")
	}

	store, warnings, err := repository.Open(cache, remote, remoteTimeout())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	for _, warn := range warnings {
		log.Printf("startup warning: %v", warn)
	}

	var events *queue.Publisher
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		events = queue.NewPublisher(url, "camrental.events")
	}

	bookingSvc := service.NewBookingService(store, events)
	handoffSvc := service.NewHandoffService(store, events)
	scheduleSvc := service.NewScheduleService(store)
	unitSvc := service.NewUnitService(store)
	jobSvc := service.NewJobService(scheduleSvc)

	bookingHandler := api.NewBookingHandler(bookingSvc)
	handoffHandler := api.NewHandoffHandler(handoffSvc)
	scheduleHandler := api.NewScheduleHandler(scheduleSvc)
	unitHandler := api.NewUnitHandler(unitSvc)
	storeHandler := api.NewStoreHandler(store)

	r := mux.NewRouter()

	r.HandleFunc("/api/availability", bookingHandler.CheckAvailability).Methods("POST")
	r.HandleFunc("/api/bookings", bookingHandler.CreateBooking).Methods("POST")
	r.HandleFunc("/api/bookings", bookingHandler.ListBookings).Methods("GET")
	r.HandleFunc("/api/bookings/{id}", bookingHandler.GetBooking).Methods("GET")
	r.HandleFunc("/api/bookings/{id}", bookingHandler.UpdateBooking).Methods("PUT")
	r.HandleFunc("/api/bookings/{id}", bookingHandler.DeleteBooking).Methods("DELETE")
	r.HandleFunc("/api/bookings/{id}/pickup", handoffHandler.ConfirmPickup).Methods("POST")
	r.HandleFunc("/api/bookings/{id}/return", handoffHandler.ConfirmReturn).Methods("POST")
	r.HandleFunc("/api/schedule/pending-pickups", scheduleHandler.PendingPickups).Methods("GET")
	r.HandleFunc("/api/schedule/pending-returns", scheduleHandler.PendingReturns).Methods("GET")
	r.HandleFunc("/api/export/bookings", bookingHandler.ExportBookings).Methods("GET")
	r.HandleFunc("/api/units", unitHandler.ListUnits).Methods("GET")
	r.HandleFunc("/api/units", unitHandler.RegisterUnit).Methods("POST")
	r.HandleFunc("/api/units/{model}/{serial}", unitHandler.UpdateUnit).Methods("PUT")
	r.HandleFunc("/api/units/{model}/{serial}", unitHandler.DeleteUnit).Methods("DELETE")
	r.HandleFunc("/api/store/reconcile", storeHandler.Reconcile).Methods("POST")
	r.HandleFunc("/healthz", storeHandler.Health).Methods("GET")

	c := cron.New()
	reminderCron := os.Getenv("REMINDER_CRON")
	if reminderCron == "" {
		reminderCron = "0 9 * * *"
	}
	if _, err := c.AddFunc(reminderCron, func() {
		if err := jobSvc.SendOverdueReminders(); err != nil {
			log.Printf("Cron Job: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule reminder job: %v", err)
	}
	c.Start()
	defer c.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handlers.LoggingHandler(os.Stdout, cors(r))))
}

func remoteTimeout() time.Duration {
	ms := 5000
	if v := os.Getenv("REMOTE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ms = n
		}
	}
	return time.Duration(ms) * time.Millisecond
}
